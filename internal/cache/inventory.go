package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix = "user:%d"
	PostKeyPrefix = "post:%d"
	// FeedFirstPageKey caches only the unfiltered first page of the feed.
	// Filtered and deeper pages always hit the database.
	FeedFirstPageKey = "feed:first"
)

const (
	UserTTL = 5 * time.Minute
	PostTTL = 30 * time.Minute
	// FeedTTL bounds how stale the cached first feed page may be.
	FeedTTL = 60 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

// InvalidateUser drops the cached profile for a user.
func (c *Cache) InvalidateUser(ctx context.Context, userID uint) {
	c.Invalidate(ctx, UserKey(userID))
}

// InvalidatePost drops the cached post and the cached feed page, since the
// feed embeds post rows and counts.
func (c *Cache) InvalidatePost(ctx context.Context, postID uint) {
	c.Invalidate(ctx, PostKey(postID), FeedFirstPageKey)
}

// InvalidateFeed drops the cached first feed page.
func (c *Cache) InvalidateFeed(ctx context.Context) {
	c.Invalidate(ctx, FeedFirstPageKey)
}
