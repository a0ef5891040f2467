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

type MessageStore struct {
	mu    sync.Mutex
	clock clockwork.Clock
	rows  map[string]*models.Message
	order map[string]int
	seq   int
}

func NewMessageStore(clock clockwork.Clock) *MessageStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MessageStore{
		clock: clock,
		rows:  make(map[string]*models.Message),
		order: make(map[string]int),
	}
}

var _ storage.MessageStore = (*MessageStore)(nil)

func (s *MessageStore) Insert(_ context.Context, msg *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	saved := *msg
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	saved.IsRead = false
	saved.SentAt = now
	saved.CreatedAt = now
	saved.UpdatedAt = now
	saved.DeletedAt = nil
	s.rows[saved.ID] = &saved
	s.seq++
	s.order[saved.ID] = s.seq

	out := saved
	return &out, nil
}

func (s *MessageStore) GetByID(_ context.Context, id string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || row.DeletedAt != nil {
		return nil, models.ErrMessageNotFound
	}
	out := *row
	return &out, nil
}

// live returns the non-deleted messages of a conversation newest-first. Ties
// on SentAt are broken by insertion order so pagination stays stable when a
// fake clock never advances.
func (s *MessageStore) live(conversationID string) []*models.Message {
	var messages []*models.Message
	for _, row := range s.rows {
		if row.ConversationID == conversationID && row.DeletedAt == nil {
			messages = append(messages, row)
		}
	}
	sort.Slice(messages, func(i, j int) bool {
		if messages[i].SentAt.Equal(messages[j].SentAt) {
			return s.order[messages[i].ID] > s.order[messages[j].ID]
		}
		return messages[i].SentAt.After(messages[j].SentAt)
	})
	return messages
}

// sortedIDs iterates rows in insertion order.
func (s *MessageStore) sortedIDs() []string {
	ids := make([]string, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return s.order[ids[i]] < s.order[ids[j]]
	})
	return ids
}

func (s *MessageStore) ListPage(_ context.Context, conversationID string, limit, offset int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := s.live(conversationID)
	if offset >= len(messages) {
		return nil, nil
	}
	end := offset + limit
	if end > len(messages) {
		end = len(messages)
	}

	page := make([]models.Message, 0, end-offset)
	for _, row := range messages[offset:end] {
		page = append(page, *row)
	}
	return page, nil
}

func (s *MessageStore) MarkAsRead(_ context.Context, messageID, receiverID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[messageID]
	if !ok || row.DeletedAt != nil || row.ReceiverID != receiverID || row.IsRead {
		return false, nil
	}
	row.IsRead = true
	row.UpdatedAt = s.clock.Now()
	return true, nil
}

func (s *MessageStore) ListUnread(_ context.Context, conversationID, receiverID string) ([]storage.UnreadRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var refs []storage.UnreadRef
	for _, id := range s.sortedIDs() {
		row := s.rows[id]
		if row.ConversationID == conversationID && row.ReceiverID == receiverID &&
			!row.IsRead && row.DeletedAt == nil {
			refs = append(refs, storage.UnreadRef{MessageID: row.ID, SenderID: row.SenderID})
		}
	}
	return refs, nil
}

func (s *MessageStore) MarkAllAsRead(_ context.Context, conversationID, receiverID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for _, row := range s.rows {
		if row.ConversationID == conversationID && row.ReceiverID == receiverID &&
			!row.IsRead && row.DeletedAt == nil {
			row.IsRead = true
			row.UpdatedAt = now
		}
	}
	return nil
}

func (s *MessageStore) UnreadCount(_ context.Context, conversationID, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, row := range s.rows {
		if row.ConversationID == conversationID && row.ReceiverID == userID &&
			!row.IsRead && row.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}

func (s *MessageStore) LastMessage(_ context.Context, conversationID string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := s.live(conversationID)
	if len(messages) == 0 {
		return nil, nil
	}
	out := *messages[0]
	return &out, nil
}

func (s *MessageStore) UpdateContent(_ context.Context, messageID, content string, typeMessage *models.MessageType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[messageID]
	if !ok || row.DeletedAt != nil {
		return models.ErrMessageNotFound
	}
	row.Content = content
	if typeMessage != nil {
		row.TypeMessage = *typeMessage
	}
	row.UpdatedAt = s.clock.Now()
	return nil
}

func (s *MessageStore) SoftDelete(_ context.Context, messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[messageID]
	if !ok || row.DeletedAt != nil {
		return false, nil
	}
	now := s.clock.Now()
	row.DeletedAt = &now
	row.UpdatedAt = now
	return true, nil
}

func (s *MessageStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	return ok && row.DeletedAt == nil, nil
}
