package postgres

import (
	"context"
	"log"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/CianusDev/synkrone-backend-sub000/internal/models"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage"
)

const uniqueViolationCode = "23505"

type ConversationStore struct {
	pool *pgxpool.Pool
}

func NewConversationStore(pool *pgxpool.Pool) *ConversationStore {
	return &ConversationStore{pool: pool}
}

var _ storage.ConversationStore = (*ConversationStore)(nil)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (s *ConversationStore) Create(ctx context.Context, conv *models.Conversation) (*models.Conversation, error) {
	id := conv.ID
	if id == "" {
		id = uuid.NewString()
	}

	// The insert is conditional on the pair having no unscoped conversation.
	// An existing unscoped row wins over any new insert for the pair, so the
	// caller converges on it instead of growing a sibling row.
	sub := psql.Select().
		Column("?::uuid", id).
		Column("?::uuid", conv.FreelanceID).
		Column("?::uuid", conv.CompanyID).
		Column("?::uuid", conv.ApplicationID).
		Column("?::uuid", conv.ContractID).
		Column("NOW()").
		Column("NOW()").
		Suffix("WHERE NOT EXISTS (SELECT 1 FROM conversations WHERE freelance_id = ? AND company_id = ? AND application_id IS NULL)",
			conv.FreelanceID, conv.CompanyID)

	query := psql.Insert("conversations").
		Columns("id", "freelance_id", "company_id", "application_id", "contract_id", "created_at", "updated_at").
		Select(sub).
		Suffix("RETURNING id, created_at, updated_at")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	created := *conv
	err = s.pool.QueryRow(ctx, sqlStr, args...).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			log.Printf("Conversation creation lost uniqueness race (freelance %s, company %s)", conv.FreelanceID, conv.CompanyID)
			return nil, models.ErrConversationExists
		}
		if errors.Is(err, pgx.ErrNoRows) {
			log.Printf("Conversation creation skipped, pair already has an unscoped conversation (freelance %s, company %s)", conv.FreelanceID, conv.CompanyID)
			return nil, models.ErrConversationExists
		}
		log.Printf("Error creating conversation: %v", err)
		return nil, errors.Wrap(err, "create conversation")
	}

	log.Printf("Conversation created with ID %s", created.ID)
	return &created, nil
}

func (s *ConversationStore) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	return s.getOne(ctx, squirrel.Eq{"id": id}, "")
}

func (s *ConversationStore) GetByApplicationID(ctx context.Context, applicationID string) (*models.Conversation, error) {
	return s.getOne(ctx, squirrel.Eq{"application_id": applicationID}, "")
}

func (s *ConversationStore) GetByParticipants(ctx context.Context, freelanceID, companyID string) (*models.Conversation, error) {
	return s.getOne(ctx, squirrel.Eq{
		"freelance_id": freelanceID,
		"company_id":   companyID,
	}, "(application_id IS NULL) DESC, created_at DESC")
}

func (s *ConversationStore) getOne(ctx context.Context, where squirrel.Eq, orderBy string) (*models.Conversation, error) {
	query := psql.Select("id", "freelance_id", "company_id", "application_id", "contract_id", "created_at", "updated_at").
		From("conversations").
		Where(where).
		Limit(1)
	if orderBy != "" {
		query = query.OrderBy(orderBy)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	var conv models.Conversation
	err = s.pool.QueryRow(ctx, sqlStr, args...).Scan(&conv.ID, &conv.FreelanceID, &conv.CompanyID,
		&conv.ApplicationID, &conv.ContractID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrConversationNotFound
		}
		log.Printf("Error getting conversation: %v", err)
		return nil, errors.Wrap(err, "get conversation")
	}
	return &conv, nil
}

func (s *ConversationStore) SetApplicationID(ctx context.Context, id, applicationID string) error {
	query := psql.Update("conversations").
		Set("application_id", applicationID).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return err
	}

	tag, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error re-pointing conversation %s to application %s: %v", id, applicationID, err)
		return errors.Wrap(err, "set application id")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrConversationNotFound
	}

	log.Printf("Conversation %s re-pointed to application %s", id, applicationID)
	return nil
}

func (s *ConversationStore) ListForUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	query := psql.Select("id", "freelance_id", "company_id", "application_id", "contract_id", "created_at", "updated_at").
		From("conversations").
		Where(squirrel.Or{
			squirrel.Eq{"freelance_id": userID},
			squirrel.Eq{"company_id": userID},
		}).
		OrderBy("updated_at DESC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error listing conversations for user %s: %v", userID, err)
		return nil, errors.Wrap(err, "list conversations")
	}
	defer rows.Close()

	var conversations []models.Conversation
	for rows.Next() {
		var conv models.Conversation
		err := rows.Scan(&conv.ID, &conv.FreelanceID, &conv.CompanyID,
			&conv.ApplicationID, &conv.ContractID, &conv.CreatedAt, &conv.UpdatedAt)
		if err != nil {
			log.Printf("Error scanning conversation row: %v", err)
			continue
		}
		conversations = append(conversations, conv)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "list conversations")
	}

	return conversations, nil
}
