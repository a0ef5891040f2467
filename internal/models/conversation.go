package models

import (
	"time"
)

// Conversation binds one freelance and one company, optionally scoped to a
// specific job application. At most one conversation exists per application id,
// and at most one unscoped conversation per participant pair.
type Conversation struct {
	ID            string    `json:"id" db:"id"`
	FreelanceID   string    `json:"freelance_id" db:"freelance_id"`
	CompanyID     string    `json:"company_id" db:"company_id"`
	ApplicationID *string   `json:"application_id,omitempty" db:"application_id"`
	ContractID    *string   `json:"contract_id,omitempty" db:"contract_id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// ConversationWithDetails is the read model returned to callers: the stored
// conversation joined with participant summaries, the latest live message and
// the unread count for the requesting viewer.
type ConversationWithDetails struct {
	Conversation
	Freelance   *UserSummary `json:"freelance,omitempty"`
	Company     *UserSummary `json:"company,omitempty"`
	LastMessage *Message     `json:"last_message,omitempty"`
	UnreadCount int          `json:"unread_count"`
}
