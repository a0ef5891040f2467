package storage

import (
	"context"

	"github.com/CianusDev/synkrone-backend-sub000/internal/models"
)

// ConversationStore owns the conversation entity and its two lookup keys.
// Create must surface a uniqueness violation on either key as
// models.ErrConversationExists so the service layer can converge onto the
// row a concurrent creator won.
type ConversationStore interface {
	Create(ctx context.Context, conv *models.Conversation) (*models.Conversation, error)
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	GetByApplicationID(ctx context.Context, applicationID string) (*models.Conversation, error)
	// GetByParticipants prefers the unscoped row for the pair and falls back
	// to the most recently created scoped one.
	GetByParticipants(ctx context.Context, freelanceID, companyID string) (*models.Conversation, error)
	SetApplicationID(ctx context.Context, id, applicationID string) error
	ListForUser(ctx context.Context, userID string) ([]models.Conversation, error)
}

// UnreadRef is the pre-update snapshot of one unread message: enough to
// partition batched read-receipts by sender after the bulk UPDATE has erased
// the unread flags.
type UnreadRef struct {
	MessageID string
	SenderID  string
}

// MessageStore owns message persistence and read/unread accounting. All reads
// exclude soft-deleted rows; all state flips are expressed as atomic
// UPDATE...WHERE so concurrent duplicates degrade to no-ops.
type MessageStore interface {
	Insert(ctx context.Context, msg *models.Message) (*models.Message, error)
	GetByID(ctx context.Context, id string) (*models.Message, error)
	// ListPage returns the page newest-first; callers reverse for display.
	ListPage(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, error)
	// MarkAsRead flips is_read where the row is still unread and owned by the
	// receiver; reports whether a row actually changed.
	MarkAsRead(ctx context.Context, messageID, receiverID string) (bool, error)
	ListUnread(ctx context.Context, conversationID, receiverID string) ([]UnreadRef, error)
	MarkAllAsRead(ctx context.Context, conversationID, receiverID string) error
	UnreadCount(ctx context.Context, conversationID, userID string) (int, error)
	// LastMessage returns (nil, nil) when the conversation has no live message.
	LastMessage(ctx context.Context, conversationID string) (*models.Message, error)
	UpdateContent(ctx context.Context, messageID, content string, typeMessage *models.MessageType) error
	SoftDelete(ctx context.Context, messageID string) (bool, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// MediaUpdate carries the partial-update fields of a media object; nil fields
// are left untouched.
type MediaUpdate struct {
	URL         *string
	Type        *models.MediaType
	Description *string
}

type MediaFilter struct {
	Type       *models.MediaType
	UploadedBy *string
}

type MediaStore interface {
	Create(ctx context.Context, media *models.Media) (*models.Media, error)
	GetByID(ctx context.Context, id string) (*models.Media, error)
	Update(ctx context.Context, id string, upd MediaUpdate) (*models.Media, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter MediaFilter) ([]models.Media, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// LinkStore is a parent↔media association table with soft-deletable links.
// The re-link policy after a soft delete differs per table (message-media
// rejects, deliverable-media revives) and is fixed at construction.
type LinkStore interface {
	AddLink(ctx context.Context, parentID, mediaID string) error
	GetLinksFor(ctx context.Context, parentID string) ([]string, error)
	RemoveLink(ctx context.Context, parentID, mediaID string) (bool, error)
	// RemoveAllLinks soft-deletes every active link of the parent and reports
	// how many were affected. Used by the deliverable rejection purge.
	RemoveAllLinks(ctx context.Context, parentID string) (int, error)
	LinkExists(ctx context.Context, parentID, mediaID string) (bool, error)
}

// ProfileStore resolves a user id to display info for one concrete profile
// table (freelances or companies); models.ErrUserNotFound on miss.
type ProfileStore interface {
	GetSummary(ctx context.Context, id string) (*models.UserSummary, error)
}
