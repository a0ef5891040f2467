package services

import (
	"context"

	"github.com/pkg/errors"

	"github.com/CianusDev/synkrone-backend-sub000/internal/models"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage"
)

// UserDirectory resolves a bare user id to its kind and display info. A user
// id belongs either to a freelance or to a company profile; callers get one
// interface instead of two concrete stores.
type UserDirectory interface {
	Resolve(ctx context.Context, id string) (*models.UserSummary, error)
}

type userDirectory struct {
	freelances storage.ProfileStore
	companies  storage.ProfileStore
}

func NewUserDirectory(freelances, companies storage.ProfileStore) *userDirectory {
	return &userDirectory{
		freelances: freelances,
		companies:  companies,
	}
}

func (d *userDirectory) Resolve(ctx context.Context, id string) (*models.UserSummary, error) {
	summary, err := d.freelances.GetSummary(ctx, id)
	if err == nil {
		return summary, nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return nil, err
	}

	summary, err = d.companies.GetSummary(ctx, id)
	if err == nil {
		return summary, nil
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return nil, err
	}
	return nil, models.ErrUserNotFound
}
