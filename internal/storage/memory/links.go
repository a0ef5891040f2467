package memory

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/CianusDev/synkrone-backend-sub000/internal/models"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage"
)

// LinkStore mirrors the postgres link store, including the per-table re-link
// policy after a soft delete.
type LinkStore struct {
	mu          sync.Mutex
	clock       clockwork.Clock
	allowRelink bool
	rows        map[string][]*models.MediaLink
}

func NewMessageMediaStore(clock clockwork.Clock) *LinkStore {
	return newLinkStore(clock, false)
}

func NewDeliverableMediaStore(clock clockwork.Clock) *LinkStore {
	return newLinkStore(clock, true)
}

func newLinkStore(clock clockwork.Clock, allowRelink bool) *LinkStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LinkStore{
		clock:       clock,
		allowRelink: allowRelink,
		rows:        make(map[string][]*models.MediaLink),
	}
}

var _ storage.LinkStore = (*LinkStore)(nil)

func (s *LinkStore) find(parentID, mediaID string) *models.MediaLink {
	for _, link := range s.rows[parentID] {
		if link.MediaID == mediaID {
			return link
		}
	}
	return nil
}

func (s *LinkStore) AddLink(_ context.Context, parentID, mediaID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if link := s.find(parentID, mediaID); link != nil {
		if link.DeletedAt == nil || !s.allowRelink {
			return models.ErrMediaAlreadyLinked
		}
		link.DeletedAt = nil
		link.CreatedAt = s.clock.Now()
		return nil
	}

	s.rows[parentID] = append(s.rows[parentID], &models.MediaLink{
		ParentID:  parentID,
		MediaID:   mediaID,
		CreatedAt: s.clock.Now(),
	})
	return nil
}

func (s *LinkStore) GetLinksFor(_ context.Context, parentID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var mediaIDs []string
	for _, link := range s.rows[parentID] {
		if link.DeletedAt == nil {
			mediaIDs = append(mediaIDs, link.MediaID)
		}
	}
	return mediaIDs, nil
}

func (s *LinkStore) RemoveLink(_ context.Context, parentID, mediaID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link := s.find(parentID, mediaID)
	if link == nil || link.DeletedAt != nil {
		return false, nil
	}
	now := s.clock.Now()
	link.DeletedAt = &now
	return true, nil
}

func (s *LinkStore) RemoveAllLinks(_ context.Context, parentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for _, link := range s.rows[parentID] {
		if link.DeletedAt == nil {
			link.DeletedAt = &now
			removed++
		}
	}
	return removed, nil
}

func (s *LinkStore) LinkExists(_ context.Context, parentID, mediaID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link := s.find(parentID, mediaID)
	return link != nil && link.DeletedAt == nil, nil
}
