package service

import (
	"context"
	"strings"

	"echoverse/internal/models"
	"echoverse/internal/repository"
)

type MessageService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
}

type SendMessageInput struct {
	SenderID   uint
	ReceiverID uint
	Content    string
	FileURL    string
	FileName   string
	FileType   string
}

type GetConversationInput struct {
	UserID uint
	PeerID uint
	Limit  int
	Offset int
}

const maxMessageLen = 2000

func NewMessageService(messageRepo repository.MessageRepository, userRepo repository.UserRepository) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

// SendMessage persists a direct message. A whitespace-only message with no
// attachment returns (nil, nil) so the caller can treat it as a no-op.
func (s *MessageService) SendMessage(ctx context.Context, in SendMessageInput) (*models.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" && in.FileURL == "" {
		return nil, nil
	}
	if len(content) > maxMessageLen {
		return nil, models.NewValidationError("Message too long (max 2000 characters)")
	}
	if in.SenderID == in.ReceiverID {
		return nil, models.NewValidationError("Cannot send a message to yourself")
	}

	if _, err := s.userRepo.GetByID(ctx, in.ReceiverID); err != nil {
		return nil, err
	}

	message := &models.Message{
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Content:    content,
		FileURL:    in.FileURL,
		FileName:   in.FileName,
		FileType:   in.FileType,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	return s.messageRepo.GetByID(ctx, message.ID)
}

// GetConversation loads the message history with a peer and marks the
// caller's incoming unread messages as read. The returned count is how many
// messages flipped to read, so the caller can notify the peer.
func (s *MessageService) GetConversation(ctx context.Context, in GetConversationInput) ([]*models.Message, int64, error) {
	if _, err := s.userRepo.GetByID(ctx, in.PeerID); err != nil {
		return nil, 0, err
	}

	if in.Limit <= 0 || in.Limit > 100 {
		in.Limit = 50
	}
	if in.Offset < 0 {
		in.Offset = 0
	}

	messages, err := s.messageRepo.GetConversation(ctx, in.UserID, in.PeerID, in.Limit, in.Offset)
	if err != nil {
		return nil, 0, err
	}

	read, err := s.messageRepo.MarkConversationRead(ctx, in.UserID, in.PeerID)
	if err != nil {
		return nil, 0, err
	}
	if read > 0 {
		for _, msg := range messages {
			if msg.ReceiverID == in.UserID {
				msg.IsRead = true
			}
		}
	}

	return messages, read, nil
}

// MarkRead marks all unread messages from the peer as read.
func (s *MessageService) MarkRead(ctx context.Context, userID, peerID uint) (int64, error) {
	return s.messageRepo.MarkConversationRead(ctx, userID, peerID)
}

// ListConversations returns the caller's conversations, most recent first.
func (s *MessageService) ListConversations(ctx context.Context, userID uint) ([]models.Conversation, error) {
	return s.messageRepo.ListConversations(ctx, userID)
}
