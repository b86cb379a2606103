// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"time"

	"echoverse/internal/models"

	"gorm.io/gorm"
)

// MessageRepository defines the interface for direct message data operations
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	GetConversation(ctx context.Context, userID, peerID uint, limit, offset int) ([]*models.Message, error)
	MarkConversationRead(ctx context.Context, receiverID, senderID uint) (int64, error)
	CountUnread(ctx context.Context, receiverID, senderID uint) (int64, error)
	ListConversations(ctx context.Context, userID uint) ([]models.Conversation, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).
		Preload("Sender").
		First(&message, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Message", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &message, nil
}

// GetConversation returns messages between two users in both directions,
// oldest first.
func (r *messageRepository) GetConversation(ctx context.Context, userID, peerID uint, limit, offset int) ([]*models.Message, error) {
	var messages []*models.Message
	if err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, peerID, peerID, userID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

// MarkConversationRead marks all unread messages from sender to receiver as
// read and returns how many rows changed.
func (r *messageRepository) MarkConversationRead(ctx context.Context, receiverID, senderID uint) (int64, error) {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", receiverID, senderID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": now})
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, receiverID, senderID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", receiverID, senderID, false).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

// ListConversations returns, per peer, the latest exchanged message and the
// caller's unread count, most recent conversation first.
func (r *messageRepository) ListConversations(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var latest []models.Message
	// Latest message per peer via a window over the pair key.
	err := r.db.WithContext(ctx).
		Raw(`SELECT * FROM (
			SELECT messages.*,
				ROW_NUMBER() OVER (
					PARTITION BY LEAST(sender_id, receiver_id), GREATEST(sender_id, receiver_id)
					ORDER BY created_at DESC
				) AS rn
			FROM messages
			WHERE deleted_at IS NULL AND (sender_id = ? OR receiver_id = ?)
		) ranked WHERE rn = 1 ORDER BY created_at DESC`, userID, userID).
		Scan(&latest).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	conversations := make([]models.Conversation, 0, len(latest))
	for _, msg := range latest {
		peerID := msg.SenderID
		if peerID == userID {
			peerID = msg.ReceiverID
		}

		var peer models.User
		if err := r.db.WithContext(ctx).First(&peer, peerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, models.NewInternalError(err)
		}

		unread, err := r.CountUnread(ctx, userID, peerID)
		if err != nil {
			return nil, err
		}

		conversations = append(conversations, models.Conversation{
			Peer:        peer.Summary(),
			LastMessage: msg,
			UnreadCount: unread,
		})
	}

	return conversations, nil
}
