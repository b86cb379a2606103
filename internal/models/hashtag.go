// Package models contains data structures for the application's domain models.
package models

import "time"

// Hashtag is a normalized tag attached to posts.
// Tags are stored lowercase without the leading '#'.
type Hashtag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Tag       string    `gorm:"unique;not null" json:"tag"`
	CreatedAt time.Time `json:"created_at"`
}

// PostHashtag is the join row between posts and hashtags.
type PostHashtag struct {
	PostID    uint `gorm:"primaryKey" json:"post_id"`
	HashtagID uint `gorm:"primaryKey" json:"hashtag_id"`
}

// TrendingHashtag is the aggregate shape returned by the trending query.
type TrendingHashtag struct {
	Tag       string `json:"tag"`
	PostCount int64  `json:"post_count"`
}
