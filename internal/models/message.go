// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Message represents a direct message between two users. Attachment fields
// are optional and reference a previously uploaded file.
type Message struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	SenderID   uint           `gorm:"not null;index:idx_messages_pair" json:"sender_id"`
	Sender     *User          `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	ReceiverID uint           `gorm:"not null;index:idx_messages_pair" json:"receiver_id"`
	Receiver   *User          `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	Content    string         `gorm:"type:text" json:"content"`
	FileURL    string         `json:"file_url,omitempty"`
	FileName   string         `json:"file_name,omitempty"`
	FileType   string         `json:"file_type,omitempty"`
	IsRead     bool           `gorm:"default:false;index" json:"is_read"`
	ReadAt     *time.Time     `json:"read_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// Conversation is the per-peer summary shape for the conversation list:
// the latest message exchanged with a peer plus the unread count.
type Conversation struct {
	Peer        UserSummary `json:"peer"`
	LastMessage Message     `json:"last_message"`
	UnreadCount int64       `json:"unread_count"`
}
