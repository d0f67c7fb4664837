package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vedran77/relay/internal/domain"
)

const messageColumns = `id, conversation_id, sender_id, content, is_read, created_at`

type MessageRepo struct {
	db DB
}

func NewMessageRepo(db DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Append stores the message and advances the conversation's activity
// timestamp in the same transaction.
func (r *MessageRepo) Append(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*domain.Message, error) {
	var msg domain.Message
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			INSERT INTO messages (conversation_id, sender_id, content)
			VALUES ($1, $2, $3)
			RETURNING ` + messageColumns
		if err := scanMessage(tx.QueryRow(ctx, query, conversationID, senderID, content), &msg); err != nil {
			return err
		}
		return NewConversationRepo(tx).Touch(ctx, conversationID)
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1 AND deleted_at IS NULL`
	var msg domain.Message
	err := scanMessage(r.db.QueryRow(ctx, query, id), &msg)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListByConversation returns messages newest first.
func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := scanMessage(rows, &msg); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *MessageRepo) LastMessage(ctx context.Context, conversationID uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	var msg domain.Message
	err := scanMessage(r.db.QueryRow(ctx, query, conversationID), &msg)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *MessageRepo) CountUnread(ctx context.Context, conversationID, userID uuid.UUID) (int, error) {
	query := `
		SELECT count(*)
		FROM messages
		WHERE conversation_id = $1 AND sender_id <> $2
			AND is_read = false AND deleted_at IS NULL`
	var n int
	err := r.db.QueryRow(ctx, query, conversationID, userID).Scan(&n)
	return n, err
}

// MarkRead flips every unread message in the conversation that readerID did
// not send. The conversation is touched only if something changed.
func (r *MessageRepo) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	var updated int64
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
			UPDATE messages SET is_read = true
			WHERE conversation_id = $1 AND sender_id <> $2
				AND is_read = false AND deleted_at IS NULL`
		tag, err := tx.Exec(ctx, query, conversationID, readerID)
		if err != nil {
			return err
		}
		updated = tag.RowsAffected()
		if updated == 0 {
			return nil
		}
		return NewConversationRepo(tx).Touch(ctx, conversationID)
	})
	return updated, err
}

func (r *MessageRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var conversationID uuid.UUID
		err := tx.QueryRow(ctx,
			`UPDATE messages SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL RETURNING conversation_id`,
			id,
		).Scan(&conversationID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		return NewConversationRepo(tx).Touch(ctx, conversationID)
	})
}

func scanMessage(row pgx.Row, msg *domain.Message) error {
	return row.Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Content,
		&msg.IsRead, &msg.CreatedAt,
	)
}
