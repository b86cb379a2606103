package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"echoverse/internal/cache"
	"echoverse/internal/middleware"
	"echoverse/internal/models"
	"echoverse/internal/repository"
	"echoverse/internal/validation"
)

type PostService struct {
	postRepo    repository.PostRepository
	hashtagRepo repository.HashtagRepository
	cache       *cache.Cache
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
}

type CreatePostInput struct {
	UserID   uint
	Title    string
	Content  string
	ImageURL string
	Hashtags []string
}

type ListFeedInput struct {
	Limit         int
	Offset        int
	CurrentUserID uint
	Hashtag       string
}

type UpdatePostInput struct {
	UserID   uint
	PostID   uint
	Title    string
	Content  string
	ImageURL *string
	Hashtags []string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

const (
	maxPostTitleLen   = 200
	maxPostContentLen = 5000
	maxPostImageURL   = 512
)

func NewPostService(
	postRepo repository.PostRepository,
	hashtagRepo repository.HashtagRepository,
	c *cache.Cache,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		hashtagRepo: hashtagRepo,
		cache:       c,
		isAdmin:     isAdmin,
	}
}

// validatePostBody checks the user-supplied post fields shared by create and update.
func validatePostBody(title, content, imageURL string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > maxPostTitleLen {
		return models.NewValidationError("Title too long (max 200 characters)")
	}
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > maxPostContentLen {
		return models.NewValidationError("Content too long (max 5000 characters)")
	}
	if len(imageURL) > maxPostImageURL {
		return models.NewValidationError("Image URL too long (max 512 characters)")
	}
	return nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validatePostBody(in.Title, in.Content, in.ImageURL); err != nil {
		return nil, err
	}

	tags, err := validation.NormalizeHashtags(in.Hashtags)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	post := &models.Post{
		Title:    strings.TrimSpace(in.Title),
		Content:  in.Content,
		ImageURL: in.ImageURL,
		UserID:   in.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.attachHashtags(ctx, post.ID, tags)

	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

// attachHashtags attaches each tag to the post. A failure on one tag is
// logged and does not abort the post; the post simply carries fewer tags.
func (s *PostService) attachHashtags(ctx context.Context, postID uint, tags []string) {
	for _, tag := range tags {
		hashtag, err := s.hashtagRepo.FindOrCreate(ctx, tag)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "failed to resolve hashtag",
				slog.String("tag", tag), slog.String("error", err.Error()))
			continue
		}
		if err := s.hashtagRepo.AttachToPost(ctx, postID, hashtag.ID); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to attach hashtag",
				slog.String("tag", tag), slog.Any("post_id", postID), slog.String("error", err.Error()))
		}
	}
}

// ListFeed returns the main feed. Only the unfiltered first page is served
// from the cache; hashtag-filtered and deeper pages always hit the database.
func (s *PostService) ListFeed(ctx context.Context, in ListFeedInput) ([]*models.Post, error) {
	if in.Hashtag != "" {
		tag := validation.NormalizeHashtag(in.Hashtag)
		if err := validation.ValidateHashtag(tag); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		return s.postRepo.ListByHashtag(ctx, tag, in.Limit, in.Offset, in.CurrentUserID)
	}

	if in.Offset == 0 && in.Limit <= 20 {
		var posts []*models.Post
		err := s.cache.Aside(ctx, cache.FeedFirstPageKey, &posts, cache.FeedTTL, func() error {
			var fetchErr error
			posts, fetchErr = s.postRepo.List(ctx, in.Limit, in.Offset, 0)
			return fetchErr
		})
		if err != nil {
			return nil, err
		}

		// Re-enrich with the current user's liked status; the cached copy is
		// viewer-agnostic.
		if in.CurrentUserID != 0 && len(posts) > 0 {
			postIDs := make([]uint, len(posts))
			for i, p := range posts {
				postIDs[i] = p.ID
			}

			likedIDs, err := s.postRepo.GetLikedPostIDs(ctx, in.CurrentUserID, postIDs)
			if err == nil {
				likedMap := make(map[uint]bool, len(likedIDs))
				for _, id := range likedIDs {
					likedMap[id] = true
				}
				for _, p := range posts {
					p.Liked = likedMap[p.ID]
				}
			}
		}
		return posts, nil
	}

	return s.postRepo.List(ctx, in.Limit, in.Offset, in.CurrentUserID)
}

func (s *PostService) GetPost(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id, currentUserID)
}

func (s *PostService) GetUserPosts(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.postRepo.GetByUserID(ctx, userID, limit, offset, currentUserID)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}

	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own posts")
	}

	imageURL := post.ImageURL
	if in.ImageURL != nil {
		imageURL = *in.ImageURL
	}
	if err := validatePostBody(in.Title, in.Content, imageURL); err != nil {
		return nil, err
	}

	post.Title = strings.TrimSpace(in.Title)
	post.Content = in.Content
	post.ImageURL = imageURL

	if in.Hashtags != nil {
		tags, err := validation.NormalizeHashtags(in.Hashtags)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if err := s.hashtagRepo.DetachAllFromPost(ctx, post.ID); err != nil {
			return nil, err
		}
		s.attachHashtags(ctx, post.ID, tags)
	}

	// Save without the preloaded associations to avoid re-linking stale rows.
	post.Hashtags = nil
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return err
	}

	if post.UserID != in.UserID {
		if s.isAdmin == nil {
			return models.NewForbiddenError("You can only delete your own posts")
		}
		admin, err := s.isAdmin(ctx, in.UserID)
		if err != nil {
			return err
		}
		if !admin {
			return models.NewForbiddenError("You can only delete your own posts")
		}
	}

	return s.postRepo.Delete(ctx, in.PostID)
}

// ToggleLike likes the post when unliked and unlikes it when liked. The
// underlying insert is idempotent, so a raced double-like settles as liked.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*models.Post, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}

	isLiked, err := s.postRepo.IsLiked(ctx, userID, postID)
	if err != nil {
		return nil, err
	}

	if isLiked {
		if err := s.postRepo.Unlike(ctx, userID, postID); err != nil {
			return nil, err
		}
	} else {
		if err := s.postRepo.Like(ctx, userID, postID); err != nil {
			return nil, err
		}
	}

	s.cache.InvalidateFeed(ctx)

	return s.postRepo.GetByID(ctx, postID, userID)
}

// TrendingHashtags returns the most used tags on recent posts.
func (s *PostService) TrendingHashtags(ctx context.Context, since int, limit int) ([]models.TrendingHashtag, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.hashtagRepo.Trending(ctx, trendingWindowStart(since), limit)
}

func trendingWindowStart(hours int) time.Time {
	if hours <= 0 || hours > 24*30 {
		hours = 24
	}
	return time.Now().Add(-time.Duration(hours) * time.Hour)
}
