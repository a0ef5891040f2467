package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/CianusDev/synkrone-backend-sub000/internal/models"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage"
)

// ConversationStore is the in-memory counterpart of the postgres store. It
// enforces the same two uniqueness keys under its lock, so the service-level
// race recovery behaves identically in tests and dev mode.
type ConversationStore struct {
	mu    sync.Mutex
	clock clockwork.Clock
	rows  map[string]*models.Conversation
}

func NewConversationStore(clock clockwork.Clock) *ConversationStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ConversationStore{
		clock: clock,
		rows:  make(map[string]*models.Conversation),
	}
}

var _ storage.ConversationStore = (*ConversationStore)(nil)

func (s *ConversationStore) Create(_ context.Context, conv *models.Conversation) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if conv.ApplicationID != nil && row.ApplicationID != nil && *row.ApplicationID == *conv.ApplicationID {
			return nil, models.ErrConversationExists
		}
		// An unscoped pair row blocks any insert for the same pair. When the
		// caller brought an application id, the caller converges on that row
		// and re-points it instead of creating a sibling.
		if row.ApplicationID == nil &&
			row.FreelanceID == conv.FreelanceID && row.CompanyID == conv.CompanyID {
			return nil, models.ErrConversationExists
		}
	}

	now := s.clock.Now()
	created := *conv
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.CreatedAt = now
	created.UpdatedAt = now
	s.rows[created.ID] = &created

	out := created
	return &out, nil
}

func (s *ConversationStore) GetByID(_ context.Context, id string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, models.ErrConversationNotFound
	}
	out := *row
	return &out, nil
}

func (s *ConversationStore) GetByApplicationID(_ context.Context, applicationID string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.rows {
		if row.ApplicationID != nil && *row.ApplicationID == applicationID {
			out := *row
			return &out, nil
		}
	}
	return nil, models.ErrConversationNotFound
}

func (s *ConversationStore) GetByParticipants(_ context.Context, freelanceID, companyID string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *models.Conversation
	for _, row := range s.rows {
		if row.FreelanceID != freelanceID || row.CompanyID != companyID {
			continue
		}
		if row.ApplicationID == nil {
			out := *row
			return &out, nil
		}
		if best == nil || row.CreatedAt.After(best.CreatedAt) {
			best = row
		}
	}
	if best == nil {
		return nil, models.ErrConversationNotFound
	}
	out := *best
	return &out, nil
}

func (s *ConversationStore) SetApplicationID(_ context.Context, id, applicationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return models.ErrConversationNotFound
	}
	appID := applicationID
	row.ApplicationID = &appID
	row.UpdatedAt = s.clock.Now()
	return nil
}

func (s *ConversationStore) ListForUser(_ context.Context, userID string) ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var conversations []models.Conversation
	for _, row := range s.rows {
		if row.FreelanceID == userID || row.CompanyID == userID {
			conversations = append(conversations, *row)
		}
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}
