package postgres

import (
	"context"
	"log"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/CianusDev/synkrone-backend-sub000/internal/models"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage"
)

type MediaStore struct {
	pool *pgxpool.Pool
}

func NewMediaStore(pool *pgxpool.Pool) *MediaStore {
	return &MediaStore{pool: pool}
}

var _ storage.MediaStore = (*MediaStore)(nil)

func (s *MediaStore) Create(ctx context.Context, media *models.Media) (*models.Media, error) {
	id := media.ID
	if id == "" {
		id = uuid.NewString()
	}

	query := psql.Insert("media").
		Columns("id", "url", "type", "uploaded_by", "uploaded_at", "description").
		Values(id, media.URL, media.Type, media.UploadedBy, squirrel.Expr("NOW()"), media.Description).
		Suffix("RETURNING id, uploaded_at")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	created := *media
	err = s.pool.QueryRow(ctx, sqlStr, args...).Scan(&created.ID, &created.UploadedAt)
	if err != nil {
		log.Printf("Error creating media: %v", err)
		return nil, errors.Wrap(err, "create media")
	}

	log.Printf("Media created with ID %s", created.ID)
	return &created, nil
}

func (s *MediaStore) GetByID(ctx context.Context, id string) (*models.Media, error) {
	query := psql.Select("id", "url", "type", "uploaded_by", "uploaded_at", "description").
		From("media").
		Where(squirrel.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	var media models.Media
	err = s.pool.QueryRow(ctx, sqlStr, args...).Scan(&media.ID, &media.URL, &media.Type,
		&media.UploadedBy, &media.UploadedAt, &media.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrMediaNotFound
		}
		log.Printf("Error getting media %s: %v", id, err)
		return nil, errors.Wrap(err, "get media")
	}
	return &media, nil
}

func (s *MediaStore) Update(ctx context.Context, id string, upd storage.MediaUpdate) (*models.Media, error) {
	query := psql.Update("media").Where(squirrel.Eq{"id": id})

	touched := false
	if upd.URL != nil {
		query = query.Set("url", *upd.URL)
		touched = true
	}
	if upd.Type != nil {
		query = query.Set("type", *upd.Type)
		touched = true
	}
	if upd.Description != nil {
		query = query.Set("description", *upd.Description)
		touched = true
	}
	if !touched {
		return s.GetByID(ctx, id)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	tag, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error updating media %s: %v", id, err)
		return nil, errors.Wrap(err, "update media")
	}
	if tag.RowsAffected() == 0 {
		return nil, models.ErrMediaNotFound
	}

	return s.GetByID(ctx, id)
}

func (s *MediaStore) Delete(ctx context.Context, id string) error {
	query := psql.Delete("media").Where(squirrel.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return err
	}

	tag, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error deleting media %s: %v", id, err)
		return errors.Wrap(err, "delete media")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrMediaNotFound
	}

	log.Printf("Media %s deleted", id)
	return nil
}

func (s *MediaStore) List(ctx context.Context, filter storage.MediaFilter) ([]models.Media, error) {
	query := psql.Select("id", "url", "type", "uploaded_by", "uploaded_at", "description").
		From("media").
		OrderBy("uploaded_at DESC")
	if filter.Type != nil {
		query = query.Where(squirrel.Eq{"type": *filter.Type})
	}
	if filter.UploadedBy != nil {
		query = query.Where(squirrel.Eq{"uploaded_by": *filter.UploadedBy})
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error listing media: %v", err)
		return nil, errors.Wrap(err, "list media")
	}
	defer rows.Close()

	var items []models.Media
	for rows.Next() {
		var media models.Media
		err := rows.Scan(&media.ID, &media.URL, &media.Type, &media.UploadedBy, &media.UploadedAt, &media.Description)
		if err != nil {
			log.Printf("Error scanning media row: %v", err)
			continue
		}
		items = append(items, media)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "list media")
	}
	return items, nil
}

func (s *MediaStore) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM media WHERE id = $1)`

	var exists bool
	err := s.pool.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		log.Printf("Error checking if media %s exists: %v", id, err)
		return false, errors.Wrap(err, "media exists")
	}
	return exists, nil
}
