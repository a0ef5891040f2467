package postgres

import (
	"context"
	"log"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/CianusDev/synkrone-backend-sub000/internal/models"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage"
)

// LinkStore implements one parent↔media association table. Both tables share
// the same shape; what differs is the re-link policy after a soft delete:
// message_media rejects re-adding, deliverable_media revives the old link.
type LinkStore struct {
	pool         *pgxpool.Pool
	table        string
	parentColumn string
	allowRelink  bool
}

func NewMessageMediaStore(pool *pgxpool.Pool) *LinkStore {
	return &LinkStore{pool: pool, table: "message_media", parentColumn: "message_id", allowRelink: false}
}

func NewDeliverableMediaStore(pool *pgxpool.Pool) *LinkStore {
	return &LinkStore{pool: pool, table: "deliverable_media", parentColumn: "deliverable_id", allowRelink: true}
}

var _ storage.LinkStore = (*LinkStore)(nil)

func (s *LinkStore) AddLink(ctx context.Context, parentID, mediaID string) error {
	query := psql.Select("deleted_at IS NULL").
		From(s.table).
		Where(squirrel.Eq{s.parentColumn: parentID, "media_id": mediaID})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return err
	}

	var active bool
	err = s.pool.QueryRow(ctx, sqlStr, args...).Scan(&active)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return s.insertLink(ctx, parentID, mediaID)
	case err != nil:
		log.Printf("Error checking link %s/%s in %s: %v", parentID, mediaID, s.table, err)
		return errors.Wrap(err, "check link")
	case active:
		return models.ErrMediaAlreadyLinked
	case s.allowRelink:
		return s.reviveLink(ctx, parentID, mediaID)
	default:
		return models.ErrMediaAlreadyLinked
	}
}

func (s *LinkStore) insertLink(ctx context.Context, parentID, mediaID string) error {
	query := psql.Insert(s.table).
		Columns(s.parentColumn, "media_id", "created_at").
		Values(parentID, mediaID, squirrel.Expr("NOW()"))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return err
	}

	_, err = s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			// A concurrent linker won; same outcome as the active-link check.
			return models.ErrMediaAlreadyLinked
		}
		log.Printf("Error linking media %s to %s %s: %v", mediaID, s.parentColumn, parentID, err)
		return errors.Wrap(err, "add link")
	}

	log.Printf("Media %s linked to %s %s", mediaID, s.parentColumn, parentID)
	return nil
}

func (s *LinkStore) reviveLink(ctx context.Context, parentID, mediaID string) error {
	query := psql.Update(s.table).
		Set("deleted_at", nil).
		Set("created_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{s.parentColumn: parentID, "media_id": mediaID})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return err
	}

	_, err = s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error reviving link %s/%s in %s: %v", parentID, mediaID, s.table, err)
		return errors.Wrap(err, "revive link")
	}

	log.Printf("Media %s re-linked to %s %s", mediaID, s.parentColumn, parentID)
	return nil
}

func (s *LinkStore) GetLinksFor(ctx context.Context, parentID string) ([]string, error) {
	query := psql.Select("media_id").
		From(s.table).
		Where(squirrel.And{
			squirrel.Eq{s.parentColumn: parentID},
			squirrel.Eq{"deleted_at": nil},
		}).
		OrderBy("created_at ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error getting links for %s %s: %v", s.parentColumn, parentID, err)
		return nil, errors.Wrap(err, "get links")
	}
	defer rows.Close()

	var mediaIDs []string
	for rows.Next() {
		var mediaID string
		if err := rows.Scan(&mediaID); err != nil {
			log.Printf("Error scanning link row: %v", err)
			continue
		}
		mediaIDs = append(mediaIDs, mediaID)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "get links")
	}
	return mediaIDs, nil
}

func (s *LinkStore) RemoveLink(ctx context.Context, parentID, mediaID string) (bool, error) {
	query := psql.Update(s.table).
		Set("deleted_at", squirrel.Expr("NOW()")).
		Where(squirrel.And{
			squirrel.Eq{s.parentColumn: parentID},
			squirrel.Eq{"media_id": mediaID},
			squirrel.Eq{"deleted_at": nil},
		})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return false, err
	}

	tag, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error removing link %s/%s from %s: %v", parentID, mediaID, s.table, err)
		return false, errors.Wrap(err, "remove link")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *LinkStore) RemoveAllLinks(ctx context.Context, parentID string) (int, error) {
	query := psql.Update(s.table).
		Set("deleted_at", squirrel.Expr("NOW()")).
		Where(squirrel.And{
			squirrel.Eq{s.parentColumn: parentID},
			squirrel.Eq{"deleted_at": nil},
		})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return 0, err
	}

	tag, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error purging links for %s %s: %v", s.parentColumn, parentID, err)
		return 0, errors.Wrap(err, "purge links")
	}

	log.Printf("Purged %d media links for %s %s", tag.RowsAffected(), s.parentColumn, parentID)
	return int(tag.RowsAffected()), nil
}

func (s *LinkStore) LinkExists(ctx context.Context, parentID, mediaID string) (bool, error) {
	query := psql.Select("COUNT(*)").
		From(s.table).
		Where(squirrel.And{
			squirrel.Eq{s.parentColumn: parentID},
			squirrel.Eq{"media_id": mediaID},
			squirrel.Eq{"deleted_at": nil},
		})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return false, err
	}

	var count int
	err = s.pool.QueryRow(ctx, sqlStr, args...).Scan(&count)
	if err != nil {
		log.Printf("Error checking link %s/%s in %s: %v", parentID, mediaID, s.table, err)
		return false, errors.Wrap(err, "link exists")
	}
	return count > 0, nil
}
