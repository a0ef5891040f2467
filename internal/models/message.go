package models

import (
	"time"
)

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeMedia  MessageType = "media"
	MessageTypeSystem MessageType = "system"
)

func IsValidMessageType(t MessageType) bool {
	switch t {
	case MessageTypeText, MessageTypeMedia, MessageTypeSystem:
		return true
	}
	return false
}

type Message struct {
	ID               string      `json:"id" db:"id"`
	ConversationID   string      `json:"conversation_id" db:"conversation_id"`
	SenderID         string      `json:"sender_id" db:"sender_id"`
	ReceiverID       string      `json:"receiver_id" db:"receiver_id"`
	Content          string      `json:"content" db:"content"`
	TypeMessage      MessageType `json:"type_message" db:"type_message"`
	ReplyToMessageID *string     `json:"reply_to_message_id,omitempty" db:"reply_to_message_id"`
	ProjectID        *string     `json:"project_id,omitempty" db:"project_id"`
	IsRead           bool        `json:"is_read" db:"is_read"`
	SentAt           time.Time   `json:"sent_at" db:"sent_at"`
	CreatedAt        time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at" db:"updated_at"`
	DeletedAt        *time.Time  `json:"deleted_at,omitempty" db:"deleted_at"`
}

// ReplyPreview is the inlined parent of a reply, looked up best-effort during
// pagination.
type ReplyPreview struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	SenderID  string    `json:"sender_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageWithUserInfo is the enriched message returned by the service layer
// and carried on push events.
type MessageWithUserInfo struct {
	Message
	Sender   *UserSummary  `json:"sender"`
	Receiver *UserSummary  `json:"receiver"`
	Media    []Media       `json:"media"`
	ReplyTo  *ReplyPreview `json:"reply_to,omitempty"`
}
