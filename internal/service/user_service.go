package service

import (
	"context"
	"strings"

	"echoverse/internal/models"
	"echoverse/internal/repository"
	"echoverse/internal/validation"
)

type UserService struct {
	userRepo   repository.UserRepository
	postRepo   repository.PostRepository
	friendRepo repository.FriendRepository
}

type UpdateProfileInput struct {
	UserID      uint
	DisplayName *string
	Bio         *string
	Location    *string
	Website     *string
	AvatarURL   *string
}

// Profile is a user together with aggregate counts shown on profile pages.
type Profile struct {
	User        models.User `json:"user"`
	PostCount   int64       `json:"post_count"`
	FriendCount int64       `json:"friend_count"`
}

func NewUserService(
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	friendRepo repository.FriendRepository,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		postRepo:   postRepo,
		friendRepo: friendRepo,
	}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", 0)
	}
	return user, nil
}

// GetProfile returns the user plus post and friend counts.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	postCount, err := s.postRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	friendCount, err := s.friendRepo.CountFriends(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User:        *user,
		PostCount:   postCount,
		FriendCount: friendCount,
	}, nil
}

// SearchUsers finds users whose username or display name starts with the query.
func (s *UserService) SearchUsers(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	if len(query) > 64 {
		return nil, models.NewValidationError("Search query too long (max 64 characters)")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.userRepo.Search(ctx, query, limit, offset)
}

// UpdateProfile updates only the fields the caller sent. Nil pointers mean
// the field was absent from the request; empty strings clear the field.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	const maxBioLen = 500
	const maxDisplayNameLen = 50
	const maxLocationLen = 100
	const maxWebsiteLen = 200

	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if len(name) > maxDisplayNameLen {
			return nil, models.NewValidationError("Display name too long (max 50 characters)")
		}
		user.DisplayName = name
	}
	if in.Bio != nil {
		if len(*in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = *in.Bio
	}
	if in.Location != nil {
		loc := strings.TrimSpace(*in.Location)
		if len(loc) > maxLocationLen {
			return nil, models.NewValidationError("Location too long (max 100 characters)")
		}
		user.Location = loc
	}
	if in.Website != nil {
		site := strings.TrimSpace(*in.Website)
		if len(site) > maxWebsiteLen {
			return nil, models.NewValidationError("Website too long (max 200 characters)")
		}
		if site != "" && !strings.HasPrefix(site, "http://") && !strings.HasPrefix(site, "https://") {
			return nil, models.NewValidationError("Website must start with http:// or https://")
		}
		user.Website = site
	}
	if in.AvatarURL != nil {
		user.AvatarURL = *in.AvatarURL
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// ChangeUsername validates and applies a new username.
func (s *UserService) ChangeUsername(ctx context.Context, userID uint, username string) (*models.User, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.ID != userID {
		return nil, models.NewConflictError("Username is already taken")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Username = username
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) SetAdmin(ctx context.Context, targetID uint, isAdmin bool) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	user.IsAdmin = isAdmin
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// IsAdmin reports whether the user has the admin flag. It matches the
// function-field shape the other services take for privilege checks.
func (s *UserService) IsAdmin(ctx context.Context, userID uint) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}
