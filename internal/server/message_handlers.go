// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"echoverse/internal/models"
	"echoverse/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SendMessage handles POST /api/messages/:userId. A whitespace-only message
// with no attachment is accepted as a no-op so clients don't have to
// special-case empty drafts.
func (s *Server) SendMessage(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	receiverID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	var req struct {
		Content  string `json:"content"`
		FileURL  string `json:"file_url"`
		FileName string `json:"file_name"`
		FileType string `json:"file_type"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	message, err := s.messageService.SendMessage(ctx, service.SendMessageInput{
		SenderID:   userID,
		ReceiverID: receiverID,
		Content:    req.Content,
		FileURL:    req.FileURL,
		FileName:   req.FileName,
		FileType:   req.FileType,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}
	if message == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}

	payload := map[string]interface{}{
		"message": message,
		"sender":  userSummaryPtr(message.Sender),
	}
	s.publishUserEvent(message.ReceiverID, EventMessageReceived, payload)
	// Echo to the sender so their other devices stay in sync.
	s.publishUserEvent(message.SenderID, EventMessageReceived, payload)

	return c.Status(fiber.StatusCreated).JSON(message)
}

// GetConversation handles GET /api/messages/:userId. Loading the history
// marks the caller's incoming unread messages read and notifies the peer.
func (s *Server) GetConversation(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	peerID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	page := parsePagination(c, 50)

	messages, read, err := s.messageService.GetConversation(ctx, service.GetConversationInput{
		UserID: userID,
		PeerID: peerID,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	if read > 0 {
		s.publishUserEvent(peerID, EventMessagesRead, map[string]interface{}{
			"reader_id": userID,
			"count":     read,
		})
	}

	return c.JSON(messages)
}

// GetConversations handles GET /api/messages: the conversation list with the
// latest message per peer and unread counts.
func (s *Server) GetConversations(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	conversations, err := s.messageService.ListConversations(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.JSON(conversations)
}

// MarkConversationRead handles POST /api/messages/:userId/read
func (s *Server) MarkConversationRead(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)
	peerID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	read, err := s.messageService.MarkRead(ctx, userID, peerID)
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	if read > 0 {
		s.publishUserEvent(peerID, EventMessagesRead, map[string]interface{}{
			"reader_id": userID,
			"count":     read,
		})
	}

	return c.JSON(fiber.Map{"read": read})
}
