package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"echoverse/internal/models"
)

type friendRepoStub struct {
	createFn                    func(context.Context, *models.Friendship) error
	getByIDFn                   func(context.Context, uint) (*models.Friendship, error)
	getFriendshipBetweenUsersFn func(context.Context, uint, uint) (*models.Friendship, error)
	getFriendsFn                func(context.Context, uint) ([]models.User, error)
	countFriendsFn              func(context.Context, uint) (int64, error)
	getPendingRequestsFn        func(context.Context, uint) ([]models.Friendship, error)
	getSentRequestsFn           func(context.Context, uint) ([]models.Friendship, error)
	acceptFn                    func(context.Context, uint) error
	updateStatusFn              func(context.Context, uint, models.FriendshipStatus) error
	deleteFn                    func(context.Context, uint) error
	removeFriendshipFn          func(context.Context, uint, uint) error
}

func (s *friendRepoStub) Create(ctx context.Context, friendship *models.Friendship) error {
	return s.createFn(ctx, friendship)
}
func (s *friendRepoStub) GetByID(ctx context.Context, id uint) (*models.Friendship, error) {
	return s.getByIDFn(ctx, id)
}
func (s *friendRepoStub) GetFriendshipBetweenUsers(ctx context.Context, userID1, userID2 uint) (*models.Friendship, error) {
	return s.getFriendshipBetweenUsersFn(ctx, userID1, userID2)
}
func (s *friendRepoStub) GetFriends(ctx context.Context, userID uint) ([]models.User, error) {
	return s.getFriendsFn(ctx, userID)
}
func (s *friendRepoStub) CountFriends(ctx context.Context, userID uint) (int64, error) {
	return s.countFriendsFn(ctx, userID)
}
func (s *friendRepoStub) GetPendingRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.getPendingRequestsFn(ctx, userID)
}
func (s *friendRepoStub) GetSentRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.getSentRequestsFn(ctx, userID)
}
func (s *friendRepoStub) Accept(ctx context.Context, friendshipID uint) error {
	return s.acceptFn(ctx, friendshipID)
}
func (s *friendRepoStub) UpdateStatus(ctx context.Context, friendshipID uint, status models.FriendshipStatus) error {
	return s.updateStatusFn(ctx, friendshipID, status)
}
func (s *friendRepoStub) Delete(ctx context.Context, friendshipID uint) error {
	return s.deleteFn(ctx, friendshipID)
}
func (s *friendRepoStub) RemoveFriendship(ctx context.Context, userID1, userID2 uint) error {
	return s.removeFriendshipFn(ctx, userID1, userID2)
}

type userRepoStub struct {
	getByIDFn          func(context.Context, uint) (*models.User, error)
	getByIDWithPostsFn func(context.Context, uint, int) (*models.User, error)
	getByEmailFn       func(context.Context, string) (*models.User, error)
	getByUsernameFn    func(context.Context, string) (*models.User, error)
	createFn           func(context.Context, *models.User) error
	updateFn           func(context.Context, *models.User) error
	deleteFn           func(context.Context, uint) error
	listFn             func(context.Context, int, int) ([]models.User, error)
	searchFn           func(context.Context, string, int, int) ([]models.User, error)
	setPresenceFn      func(context.Context, uint, bool, time.Time) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByIDWithPosts(ctx context.Context, id uint, limit int) (*models.User, error) {
	return s.getByIDWithPostsFn(ctx, id, limit)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) Search(ctx context.Context, q string, limit, offset int) ([]models.User, error) {
	return s.searchFn(ctx, q, limit, offset)
}
func (s *userRepoStub) SetPresence(ctx context.Context, id uint, online bool, seenAt time.Time) error {
	return s.setPresenceFn(ctx, id, online, seenAt)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:          func(context.Context, uint) (*models.User, error) { return &models.User{}, nil },
		getByIDWithPostsFn: func(context.Context, uint, int) (*models.User, error) { return &models.User{}, nil },
		getByEmailFn:       func(context.Context, string) (*models.User, error) { return &models.User{}, nil },
		getByUsernameFn:    func(context.Context, string) (*models.User, error) { return &models.User{}, nil },
		createFn:           func(context.Context, *models.User) error { return nil },
		updateFn:           func(context.Context, *models.User) error { return nil },
		deleteFn:           func(context.Context, uint) error { return nil },
		listFn:             func(context.Context, int, int) ([]models.User, error) { return nil, nil },
		searchFn:           func(context.Context, string, int, int) ([]models.User, error) { return nil, nil },
		setPresenceFn:      func(context.Context, uint, bool, time.Time) error { return nil },
	}
}

func noopFriendRepo() *friendRepoStub {
	return &friendRepoStub{
		createFn:                    func(context.Context, *models.Friendship) error { return nil },
		getByIDFn:                   func(context.Context, uint) (*models.Friendship, error) { return &models.Friendship{}, nil },
		getFriendshipBetweenUsersFn: func(context.Context, uint, uint) (*models.Friendship, error) { return nil, nil },
		getFriendsFn:                func(context.Context, uint) ([]models.User, error) { return nil, nil },
		countFriendsFn:              func(context.Context, uint) (int64, error) { return 0, nil },
		getPendingRequestsFn:        func(context.Context, uint) ([]models.Friendship, error) { return nil, nil },
		getSentRequestsFn:           func(context.Context, uint) ([]models.Friendship, error) { return nil, nil },
		acceptFn:                    func(context.Context, uint) error { return nil },
		updateStatusFn:              func(context.Context, uint, models.FriendshipStatus) error { return nil },
		deleteFn:                    func(context.Context, uint) error { return nil },
		removeFriendshipFn:          func(context.Context, uint, uint) error { return nil },
	}
}

func TestFriendServiceSendFriendRequestSelf(t *testing.T) {
	svc := NewFriendService(noopFriendRepo(), noopUserRepo())
	_, err := svc.SendFriendRequest(context.Background(), 3, 3)
	if err == nil {
		t.Fatal("expected validation error")
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation app error, got %#v", err)
	}
}

func TestFriendServiceSendFriendRequestAlreadyPending(t *testing.T) {
	repo := noopFriendRepo()
	repo.getFriendshipBetweenUsersFn = func(context.Context, uint, uint) (*models.Friendship, error) {
		return &models.Friendship{ID: 7, UserID: 1, FriendID: 2, Status: models.FriendshipStatusPending}, nil
	}

	svc := NewFriendService(repo, noopUserRepo())
	_, err := svc.SendFriendRequest(context.Background(), 1, 2)
	if err == nil {
		t.Fatal("expected conflict error")
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != "CONFLICT" {
		t.Fatalf("expected conflict app error, got %#v", err)
	}
}

func TestFriendServiceSendFriendRequestRetriesRejected(t *testing.T) {
	repo := noopFriendRepo()
	deleted := false
	repo.getFriendshipBetweenUsersFn = func(context.Context, uint, uint) (*models.Friendship, error) {
		return &models.Friendship{ID: 7, UserID: 2, FriendID: 1, Status: models.FriendshipStatusRejected}, nil
	}
	repo.deleteFn = func(_ context.Context, id uint) error {
		deleted = id == 7
		return nil
	}
	repo.createFn = func(_ context.Context, f *models.Friendship) error {
		f.ID = 8
		return nil
	}
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Friendship, error) {
		return &models.Friendship{ID: id, UserID: 1, FriendID: 2, Status: models.FriendshipStatusPending}, nil
	}

	svc := NewFriendService(repo, noopUserRepo())
	friendship, err := svc.SendFriendRequest(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Fatal("expected rejected edge to be removed")
	}
	if friendship.Status != models.FriendshipStatusPending {
		t.Fatalf("expected pending friendship, got %s", friendship.Status)
	}
}

func TestFriendServiceAcceptNotAddressee(t *testing.T) {
	repo := noopFriendRepo()
	repo.getByIDFn = func(context.Context, uint) (*models.Friendship, error) {
		return &models.Friendship{
			ID:       5,
			UserID:   10,
			FriendID: 11,
			Status:   models.FriendshipStatusPending,
		}, nil
	}

	svc := NewFriendService(repo, noopUserRepo())
	_, err := svc.AcceptFriendRequest(context.Background(), 12, 5)
	if err == nil {
		t.Fatal("expected forbidden error")
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != "FORBIDDEN" {
		t.Fatalf("expected forbidden app error, got %#v", err)
	}
}

func TestFriendServiceAcceptDelegatesToRepo(t *testing.T) {
	repo := noopFriendRepo()
	accepted := false
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Friendship, error) {
		status := models.FriendshipStatusPending
		if accepted {
			status = models.FriendshipStatusAccepted
		}
		return &models.Friendship{ID: id, UserID: 10, FriendID: 11, Status: status}, nil
	}
	repo.acceptFn = func(_ context.Context, id uint) error {
		accepted = id == 5
		return nil
	}

	svc := NewFriendService(repo, noopUserRepo())
	friendship, err := svc.AcceptFriendRequest(context.Background(), 11, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !accepted {
		t.Fatal("expected repo Accept to be called")
	}
	if friendship.Status != models.FriendshipStatusAccepted {
		t.Fatalf("expected accepted status, got %s", friendship.Status)
	}
}

func TestFriendServiceRejectAsRequesterCancels(t *testing.T) {
	repo := noopFriendRepo()
	deleted := false
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Friendship, error) {
		return &models.Friendship{ID: id, UserID: 10, FriendID: 11, Status: models.FriendshipStatusPending}, nil
	}
	repo.deleteFn = func(_ context.Context, id uint) error {
		deleted = id == 5
		return nil
	}
	repo.updateStatusFn = func(context.Context, uint, models.FriendshipStatus) error {
		t.Fatal("requester cancel must not update status")
		return nil
	}

	svc := NewFriendService(repo, noopUserRepo())
	if _, err := svc.RejectFriendRequest(context.Background(), 10, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Fatal("expected edge to be deleted")
	}
}

func TestFriendServiceRejectAsAddresseeKeepsEdge(t *testing.T) {
	repo := noopFriendRepo()
	var newStatus models.FriendshipStatus
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Friendship, error) {
		return &models.Friendship{ID: id, UserID: 10, FriendID: 11, Status: models.FriendshipStatusPending}, nil
	}
	repo.updateStatusFn = func(_ context.Context, _ uint, status models.FriendshipStatus) error {
		newStatus = status
		return nil
	}

	svc := NewFriendService(repo, noopUserRepo())
	if _, err := svc.RejectFriendRequest(context.Background(), 11, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newStatus != models.FriendshipStatusRejected {
		t.Fatalf("expected rejected status, got %s", newStatus)
	}
}

func TestFriendServiceStatusDirections(t *testing.T) {
	repo := noopFriendRepo()
	repo.getFriendshipBetweenUsersFn = func(context.Context, uint, uint) (*models.Friendship, error) {
		return &models.Friendship{ID: 4, UserID: 1, FriendID: 2, Status: models.FriendshipStatusPending}, nil
	}

	svc := NewFriendService(repo, noopUserRepo())

	status, requestID, _, err := svc.GetFriendshipStatus(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != "pending_sent" || requestID != 4 {
		t.Fatalf("expected pending_sent/4, got %s/%d", status, requestID)
	}

	status, _, _, err = svc.GetFriendshipStatus(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != "pending_received" {
		t.Fatalf("expected pending_received, got %s", status)
	}
}

func TestFriendServiceRemoveFriendNotAccepted(t *testing.T) {
	repo := noopFriendRepo()
	repo.getFriendshipBetweenUsersFn = func(context.Context, uint, uint) (*models.Friendship, error) {
		return &models.Friendship{
			ID:     9,
			Status: models.FriendshipStatusPending,
		}, nil
	}

	svc := NewFriendService(repo, noopUserRepo())
	_, err := svc.RemoveFriend(context.Background(), 1, 2)
	if err == nil {
		t.Fatal("expected not-found error")
	}
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != "NOT_FOUND" {
		t.Fatalf("expected not-found app error, got %#v", err)
	}
}
