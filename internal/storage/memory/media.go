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

type MediaStore struct {
	mu    sync.Mutex
	clock clockwork.Clock
	rows  map[string]*models.Media
}

func NewMediaStore(clock clockwork.Clock) *MediaStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MediaStore{
		clock: clock,
		rows:  make(map[string]*models.Media),
	}
}

var _ storage.MediaStore = (*MediaStore)(nil)

func (s *MediaStore) Create(_ context.Context, media *models.Media) (*models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := *media
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	created.UploadedAt = s.clock.Now()
	s.rows[created.ID] = &created

	out := created
	return &out, nil
}

func (s *MediaStore) GetByID(_ context.Context, id string) (*models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, models.ErrMediaNotFound
	}
	out := *row
	return &out, nil
}

func (s *MediaStore) Update(_ context.Context, id string, upd storage.MediaUpdate) (*models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, models.ErrMediaNotFound
	}
	if upd.URL != nil {
		row.URL = *upd.URL
	}
	if upd.Type != nil {
		row.Type = *upd.Type
	}
	if upd.Description != nil {
		row.Description = *upd.Description
	}
	out := *row
	return &out, nil
}

func (s *MediaStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return models.ErrMediaNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *MediaStore) List(_ context.Context, filter storage.MediaFilter) ([]models.Media, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []models.Media
	for _, row := range s.rows {
		if filter.Type != nil && row.Type != *filter.Type {
			continue
		}
		if filter.UploadedBy != nil && row.UploadedBy != *filter.UploadedBy {
			continue
		}
		items = append(items, *row)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].UploadedAt.Equal(items[j].UploadedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].UploadedAt.After(items[j].UploadedAt)
	})
	return items, nil
}

func (s *MediaStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.rows[id]
	return ok, nil
}
