// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"time"

	"echoverse/internal/models"

	"gorm.io/gorm"
)

// HashtagRepository defines the interface for hashtag data operations
type HashtagRepository interface {
	FindOrCreate(ctx context.Context, tag string) (*models.Hashtag, error)
	AttachToPost(ctx context.Context, postID, hashtagID uint) error
	DetachAllFromPost(ctx context.Context, postID uint) error
	GetByPost(ctx context.Context, postID uint) ([]models.Hashtag, error)
	Trending(ctx context.Context, since time.Time, limit int) ([]models.TrendingHashtag, error)
}

type hashtagRepository struct {
	db *gorm.DB
}

// NewHashtagRepository creates a new hashtag repository
func NewHashtagRepository(db *gorm.DB) HashtagRepository {
	return &hashtagRepository{db: db}
}

func (r *hashtagRepository) FindOrCreate(ctx context.Context, tag string) (*models.Hashtag, error) {
	var hashtag models.Hashtag
	err := r.db.WithContext(ctx).
		Where(models.Hashtag{Tag: tag}).
		FirstOrCreate(&hashtag).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &hashtag, nil
}

func (r *hashtagRepository) AttachToPost(ctx context.Context, postID, hashtagID uint) error {
	// Idempotent: re-attaching an existing pair is a no-op
	err := r.db.WithContext(ctx).Exec(
		`INSERT INTO post_hashtags (post_id, hashtag_id)
		 VALUES (?, ?)
		 ON CONFLICT (post_id, hashtag_id) DO NOTHING`,
		postID, hashtagID,
	).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *hashtagRepository) DetachAllFromPost(ctx context.Context, postID uint) error {
	if err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Delete(&models.PostHashtag{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *hashtagRepository) GetByPost(ctx context.Context, postID uint) ([]models.Hashtag, error) {
	var hashtags []models.Hashtag
	err := r.db.WithContext(ctx).
		Joins("JOIN post_hashtags ph ON ph.hashtag_id = hashtags.id").
		Where("ph.post_id = ?", postID).
		Order("hashtags.tag ASC").
		Find(&hashtags).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return hashtags, nil
}

func (r *hashtagRepository) Trending(ctx context.Context, since time.Time, limit int) ([]models.TrendingHashtag, error) {
	var trending []models.TrendingHashtag
	err := r.db.WithContext(ctx).
		Table("hashtags").
		Select("hashtags.tag as tag, COUNT(ph.post_id) as post_count").
		Joins("JOIN post_hashtags ph ON ph.hashtag_id = hashtags.id").
		Joins("JOIN posts p ON p.id = ph.post_id AND p.deleted_at IS NULL").
		Where("p.created_at > ?", since).
		Group("hashtags.tag").
		Order("post_count DESC").
		Limit(limit).
		Scan(&trending).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return trending, nil
}
