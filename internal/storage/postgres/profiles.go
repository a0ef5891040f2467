package postgres

import (
	"context"
	"log"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/CianusDev/synkrone-backend-sub000/internal/models"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage"
)

// FreelanceStore resolves freelance profiles to display summaries. Profile
// writes live elsewhere; messaging only reads.
type FreelanceStore struct {
	pool *pgxpool.Pool
}

func NewFreelanceStore(pool *pgxpool.Pool) *FreelanceStore {
	return &FreelanceStore{pool: pool}
}

var _ storage.ProfileStore = (*FreelanceStore)(nil)

func (s *FreelanceStore) GetSummary(ctx context.Context, id string) (*models.UserSummary, error) {
	query := psql.Select("id", "COALESCE(firstname, '')", "COALESCE(lastname, '')", "COALESCE(photo_url, '')").
		From("freelances").
		Where(squirrel.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	summary := models.UserSummary{Kind: models.UserKindFreelance}
	err = s.pool.QueryRow(ctx, sqlStr, args...).Scan(&summary.ID, &summary.FirstName, &summary.LastName, &summary.PhotoURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		log.Printf("Error getting freelance %s: %v", id, err)
		return nil, errors.Wrap(err, "get freelance")
	}
	return &summary, nil
}

type CompanyStore struct {
	pool *pgxpool.Pool
}

func NewCompanyStore(pool *pgxpool.Pool) *CompanyStore {
	return &CompanyStore{pool: pool}
}

var _ storage.ProfileStore = (*CompanyStore)(nil)

func (s *CompanyStore) GetSummary(ctx context.Context, id string) (*models.UserSummary, error) {
	query := psql.Select("id", "COALESCE(company_name, '')", "COALESCE(logo_url, '')").
		From("companies").
		Where(squirrel.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	summary := models.UserSummary{Kind: models.UserKindCompany}
	err = s.pool.QueryRow(ctx, sqlStr, args...).Scan(&summary.ID, &summary.CompanyName, &summary.LogoURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrUserNotFound
		}
		log.Printf("Error getting company %s: %v", id, err)
		return nil, errors.Wrap(err, "get company")
	}
	return &summary, nil
}
