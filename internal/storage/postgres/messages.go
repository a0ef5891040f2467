package postgres

import (
	"context"
	"log"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/CianusDev/synkrone-backend-sub000/internal/models"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

var _ storage.MessageStore = (*MessageStore)(nil)

var messageColumns = []string{
	"id", "conversation_id", "sender_id", "receiver_id", "content", "type_message",
	"reply_to_message_id", "project_id", "is_read", "sent_at", "created_at", "updated_at", "deleted_at",
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var msg models.Message
	err := row.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.ReceiverID, &msg.Content,
		&msg.TypeMessage, &msg.ReplyToMessageID, &msg.ProjectID, &msg.IsRead,
		&msg.SentAt, &msg.CreatedAt, &msg.UpdatedAt, &msg.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *MessageStore) Insert(ctx context.Context, msg *models.Message) (*models.Message, error) {
	id := msg.ID
	if id == "" {
		id = uuid.NewString()
	}

	query := psql.Insert("messages").
		Columns("id", "conversation_id", "sender_id", "receiver_id", "content", "type_message",
			"reply_to_message_id", "project_id", "is_read", "sent_at", "created_at", "updated_at").
		Values(id, msg.ConversationID, msg.SenderID, msg.ReceiverID, msg.Content, msg.TypeMessage,
			msg.ReplyToMessageID, msg.ProjectID, false,
			squirrel.Expr("NOW()"), squirrel.Expr("NOW()"), squirrel.Expr("NOW()")).
		Suffix("RETURNING id, sent_at, created_at, updated_at")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	saved := *msg
	saved.IsRead = false
	err = s.pool.QueryRow(ctx, sqlStr, args...).Scan(&saved.ID, &saved.SentAt, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		log.Printf("Error saving message: %v", err)
		return nil, errors.Wrap(err, "insert message")
	}

	log.Printf("Message %s saved in conversation %s (sender %s)", saved.ID, saved.ConversationID, saved.SenderID)
	return &saved, nil
}

func (s *MessageStore) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := psql.Select(messageColumns...).
		From("messages").
		Where(squirrel.And{
			squirrel.Eq{"id": id},
			squirrel.Eq{"deleted_at": nil},
		})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	msg, err := scanMessage(s.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrMessageNotFound
		}
		log.Printf("Error getting message %s: %v", id, err)
		return nil, errors.Wrap(err, "get message")
	}
	return msg, nil
}

func (s *MessageStore) ListPage(ctx context.Context, conversationID string, limit, offset int) ([]models.Message, error) {
	query := psql.Select(messageColumns...).
		From("messages").
		Where(squirrel.And{
			squirrel.Eq{"conversation_id": conversationID},
			squirrel.Eq{"deleted_at": nil},
		}).
		OrderBy("sent_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error fetching messages for conversation %s: %v", conversationID, err)
		return nil, errors.Wrap(err, "list messages")
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			log.Printf("Error scanning message row: %v", err)
			return nil, err
		}
		messages = append(messages, *msg)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "list messages")
	}

	log.Printf("Fetched %d messages for conversation %s", len(messages), conversationID)
	return messages, nil
}

func (s *MessageStore) MarkAsRead(ctx context.Context, messageID, receiverID string) (bool, error) {
	// Ownership and idempotency live in the WHERE clause: only the receiver's
	// still-unread live row can flip.
	query := psql.Update("messages").
		Set("is_read", true).
		Set("updated_at", time.Now()).
		Where(squirrel.And{
			squirrel.Eq{"id": messageID},
			squirrel.Eq{"receiver_id": receiverID},
			squirrel.Eq{"is_read": false},
			squirrel.Eq{"deleted_at": nil},
		})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return false, err
	}

	tag, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error marking message %s as read for user %s: %v", messageID, receiverID, err)
		return false, errors.Wrap(err, "mark as read")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *MessageStore) ListUnread(ctx context.Context, conversationID, receiverID string) ([]storage.UnreadRef, error) {
	query := psql.Select("id", "sender_id").
		From("messages").
		Where(squirrel.And{
			squirrel.Eq{"conversation_id": conversationID},
			squirrel.Eq{"receiver_id": receiverID},
			squirrel.Eq{"is_read": false},
			squirrel.Eq{"deleted_at": nil},
		}).
		OrderBy("sent_at ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error fetching unread messages for conversation %s and user %s: %v", conversationID, receiverID, err)
		return nil, errors.Wrap(err, "list unread")
	}
	defer rows.Close()

	var refs []storage.UnreadRef
	for rows.Next() {
		var ref storage.UnreadRef
		if err := rows.Scan(&ref.MessageID, &ref.SenderID); err != nil {
			log.Printf("Error scanning unread message row: %v", err)
			continue
		}
		refs = append(refs, ref)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "list unread")
	}
	return refs, nil
}

func (s *MessageStore) MarkAllAsRead(ctx context.Context, conversationID, receiverID string) error {
	query := psql.Update("messages").
		Set("is_read", true).
		Set("updated_at", time.Now()).
		Where(squirrel.And{
			squirrel.Eq{"conversation_id": conversationID},
			squirrel.Eq{"receiver_id": receiverID},
			squirrel.Eq{"is_read": false},
			squirrel.Eq{"deleted_at": nil},
		})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return err
	}

	_, err = s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error marking conversation %s as read for user %s: %v", conversationID, receiverID, err)
		return errors.Wrap(err, "mark all as read")
	}
	return nil
}

func (s *MessageStore) UnreadCount(ctx context.Context, conversationID, userID string) (int, error) {
	query := psql.Select("COUNT(*)").
		From("messages").
		Where(squirrel.And{
			squirrel.Eq{"conversation_id": conversationID},
			squirrel.Eq{"receiver_id": userID},
			squirrel.Eq{"is_read": false},
			squirrel.Eq{"deleted_at": nil},
		})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return 0, err
	}

	var count int
	err = s.pool.QueryRow(ctx, sqlStr, args...).Scan(&count)
	if err != nil {
		log.Printf("Error getting unread count for conversation %s and user %s: %v", conversationID, userID, err)
		return 0, errors.Wrap(err, "unread count")
	}
	return count, nil
}

func (s *MessageStore) LastMessage(ctx context.Context, conversationID string) (*models.Message, error) {
	query := psql.Select(messageColumns...).
		From("messages").
		Where(squirrel.And{
			squirrel.Eq{"conversation_id": conversationID},
			squirrel.Eq{"deleted_at": nil},
		}).
		OrderBy("sent_at DESC").
		Limit(1)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return nil, err
	}

	msg, err := scanMessage(s.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		log.Printf("Error getting last message for conversation %s: %v", conversationID, err)
		return nil, errors.Wrap(err, "last message")
	}
	return msg, nil
}

func (s *MessageStore) UpdateContent(ctx context.Context, messageID, content string, typeMessage *models.MessageType) error {
	query := psql.Update("messages").
		Set("content", content).
		Set("updated_at", time.Now()).
		Where(squirrel.And{
			squirrel.Eq{"id": messageID},
			squirrel.Eq{"deleted_at": nil},
		})
	if typeMessage != nil {
		query = query.Set("type_message", *typeMessage)
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return err
	}

	tag, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error updating content of message %s: %v", messageID, err)
		return errors.Wrap(err, "update content")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrMessageNotFound
	}
	return nil
}

func (s *MessageStore) SoftDelete(ctx context.Context, messageID string) (bool, error) {
	query := psql.Update("messages").
		Set("deleted_at", squirrel.Expr("NOW()")).
		Set("updated_at", time.Now()).
		Where(squirrel.And{
			squirrel.Eq{"id": messageID},
			squirrel.Eq{"deleted_at": nil},
		})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Printf("Failed to build SQL query: %v", err)
		return false, err
	}

	tag, err := s.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		log.Printf("Error soft-deleting message %s: %v", messageID, err)
		return false, errors.Wrap(err, "soft delete")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *MessageStore) Exists(ctx context.Context, id string) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1
            FROM messages
            WHERE id = $1 AND deleted_at IS NULL
        )
    `

	var exists bool
	err := s.pool.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		log.Printf("Error checking if message %s exists: %v", id, err)
		return false, errors.Wrap(err, "message exists")
	}
	return exists, nil
}
