package memory

import (
	"context"
	"sync"

	"github.com/CianusDev/synkrone-backend-sub000/internal/models"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage"
)

// ProfileStore holds display summaries for one profile kind (freelance or
// company). Dev mode and tests seed it directly with Put.
type ProfileStore struct {
	mu   sync.Mutex
	rows map[string]models.UserSummary
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{rows: make(map[string]models.UserSummary)}
}

var _ storage.ProfileStore = (*ProfileStore)(nil)

func (s *ProfileStore) Put(summary models.UserSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[summary.ID] = summary
}

func (s *ProfileStore) GetSummary(_ context.Context, id string) (*models.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, ok := s.rows[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	out := summary
	return &out, nil
}
