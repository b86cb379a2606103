package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"echoverse/internal/cache"
	"echoverse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_Integration(t *testing.T) {
	repo := NewPostRepository(testDB, cache.NewWithClient(nil))
	tags := NewHashtagRepository(testDB)
	ctx := context.Background()

	ts := time.Now().UnixNano()
	author := &models.User{Username: fmt.Sprintf("p1_%d", ts), Email: fmt.Sprintf("p1_%d@e.com", ts)}
	viewer := &models.User{Username: fmt.Sprintf("p2_%d", ts), Email: fmt.Sprintf("p2_%d@e.com", ts)}
	testDB.Create(author)
	testDB.Create(viewer)

	post := &models.Post{Title: "greetings", Content: "hello echoverse", UserID: author.ID}

	t.Run("Create and GetByID", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, post))

		got, err := repo.GetByID(ctx, post.ID, viewer.ID)
		require.NoError(t, err)
		assert.Equal(t, "greetings", got.Title)
		assert.Equal(t, "hello echoverse", got.Content)
		assert.Equal(t, author.Username, got.User.Username)
		assert.Zero(t, got.LikesCount)
		assert.False(t, got.Liked)
	})

	t.Run("Like is idempotent", func(t *testing.T) {
		require.NoError(t, repo.Like(ctx, viewer.ID, post.ID))
		require.NoError(t, repo.Like(ctx, viewer.ID, post.ID))

		count, err := repo.CountLikes(ctx, post.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		liked, err := repo.IsLiked(ctx, viewer.ID, post.ID)
		require.NoError(t, err)
		assert.True(t, liked)

		got, err := repo.GetByID(ctx, post.ID, viewer.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.LikesCount)
		assert.True(t, got.Liked)
	})

	t.Run("Unlike removes the like", func(t *testing.T) {
		require.NoError(t, repo.Unlike(ctx, viewer.ID, post.ID))

		count, err := repo.CountLikes(ctx, post.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("ListByHashtag filters the feed", func(t *testing.T) {
		tag, err := tags.FindOrCreate(ctx, fmt.Sprintf("golang%d", ts%1000))
		require.NoError(t, err)
		require.NoError(t, tags.AttachToPost(ctx, post.ID, tag.ID))

		other := &models.Post{Title: "plain", Content: "untagged", UserID: author.ID}
		require.NoError(t, repo.Create(ctx, other))

		posts, err := repo.ListByHashtag(ctx, tag.Tag, 10, 0, 0)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, post.ID, posts[0].ID)

		all, err := repo.List(ctx, 50, 0, 0)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(all), 2)
	})

	t.Run("Deleted posts vanish from hashtag feeds", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, post.ID))

		var hashtags []models.Hashtag
		require.NoError(t, testDB.Find(&hashtags).Error)
		for _, h := range hashtags {
			posts, err := repo.ListByHashtag(ctx, h.Tag, 10, 0, 0)
			require.NoError(t, err)
			for _, p := range posts {
				assert.NotEqual(t, post.ID, p.ID)
			}
		}
	})
}

func TestHashtagRepository_Trending(t *testing.T) {
	repo := NewPostRepository(testDB, cache.NewWithClient(nil))
	tags := NewHashtagRepository(testDB)
	ctx := context.Background()

	ts := time.Now().UnixNano()
	author := &models.User{Username: fmt.Sprintf("t1_%d", ts), Email: fmt.Sprintf("t1_%d@e.com", ts)}
	testDB.Create(author)

	tag, err := tags.FindOrCreate(ctx, fmt.Sprintf("trend%d", ts%100000))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		p := &models.Post{Title: fmt.Sprintf("trending %d", i), Content: fmt.Sprintf("trending %d", i), UserID: author.ID}
		require.NoError(t, repo.Create(ctx, p))
		require.NoError(t, tags.AttachToPost(ctx, p.ID, tag.ID))
	}

	trending, err := tags.Trending(ctx, time.Now().Add(-time.Hour), 10)
	require.NoError(t, err)

	var found *models.TrendingHashtag
	for i := range trending {
		if trending[i].Tag == tag.Tag {
			found = &trending[i]
		}
	}
	require.NotNil(t, found)
	assert.EqualValues(t, 3, found.PostCount)
}
