// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"time"

	"echoverse/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SendFriendRequest handles POST /api/friends/requests/:userId
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	targetUserID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	friendship, err := s.friendService.SendFriendRequest(ctx, userID, targetUserID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	// Notify both users so UI updates immediately.
	s.publishUserEvent(friendship.FriendID, EventFriendRequestReceived, map[string]interface{}{
		"request_id": friendship.ID,
		"from_user":  userSummary(friendship.User),
	})
	s.publishUserEvent(friendship.UserID, EventFriendRequestSent, map[string]interface{}{
		"request_id": friendship.ID,
		"to_user":    userSummary(friendship.Friend),
	})

	return c.Status(fiber.StatusCreated).JSON(friendship)
}

// GetPendingRequests handles GET /api/friends/requests
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	requests, err := s.friendService.GetPendingRequests(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(requests)
}

// GetSentRequests handles GET /api/friends/requests/sent
func (s *Server) GetSentRequests(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	requests, err := s.friendService.GetSentRequests(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(requests)
}

// AcceptFriendRequest handles POST /api/friends/requests/:requestId/accept
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	friendship, err := s.friendService.AcceptFriendRequest(ctx, userID, requestID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.publishUserEvent(friendship.UserID, EventFriendRequestAccepted, map[string]interface{}{
		"request_id":  friendship.ID,
		"friend_user": userSummary(friendship.Friend),
	})
	s.publishUserEvent(friendship.FriendID, EventFriendAdded, map[string]interface{}{
		"request_id":  friendship.ID,
		"friend_user": userSummary(friendship.User),
	})

	return c.JSON(friendship)
}

// RejectFriendRequest handles POST /api/friends/requests/:requestId/reject.
// The addressee rejects; the requester cancels their own pending request.
func (s *Server) RejectFriendRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	friendship, err := s.friendService.RejectFriendRequest(ctx, userID, requestID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	eventType := EventFriendRequestRejected
	if friendship.UserID == userID {
		eventType = EventFriendRequestCancelled
	}
	s.publishUserEvent(friendship.UserID, eventType, map[string]interface{}{
		"request_id":  friendship.ID,
		"by_user_id":  userID,
		"rejected_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	s.publishUserEvent(friendship.FriendID, eventType, map[string]interface{}{
		"request_id":  friendship.ID,
		"by_user_id":  userID,
		"rejected_at": time.Now().UTC().Format(time.RFC3339Nano),
	})

	return c.SendStatus(fiber.StatusNoContent)
}

// GetFriends handles GET /api/friends
func (s *Server) GetFriends(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	friends, err := s.friendService.GetFriends(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	summaries := make([]models.UserSummary, len(friends))
	for i := range friends {
		summaries[i] = friends[i].Summary()
	}

	return c.JSON(summaries)
}

// GetFriendshipStatus handles GET /api/friends/status/:userId
func (s *Server) GetFriendshipStatus(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	targetUserID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	status, requestID, friendship, err := s.friendService.GetFriendshipStatus(ctx, userID, targetUserID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(fiber.Map{
		"status":     status,
		"request_id": requestID,
		"friendship": friendship,
	})
}

// RemoveFriend handles DELETE /api/friends/:userId
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	targetUserID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if _, err := s.friendService.RemoveFriend(ctx, userID, targetUserID); err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	s.publishUserEvent(userID, EventFriendRemoved, map[string]interface{}{
		"user_id":    targetUserID,
		"removed_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	s.publishUserEvent(targetUserID, EventFriendRemoved, map[string]interface{}{
		"user_id":    userID,
		"removed_at": time.Now().UTC().Format(time.RFC3339Nano),
	})

	return c.SendStatus(fiber.StatusNoContent)
}
