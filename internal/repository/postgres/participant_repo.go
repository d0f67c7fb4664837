package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/vedran77/relay/internal/domain"
	"github.com/vedran77/relay/internal/repository"
)

type ParticipantRepo struct {
	db DB
}

func NewParticipantRepo(db DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// AddParticipants inserts all rows in one statement, so the batch is atomic
// even outside an explicit transaction.
func (r *ParticipantRepo) AddParticipants(ctx context.Context, conversationID uuid.UUID, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO conversation_participants (conversation_id, user_id)
		SELECT $1, unnest($2::uuid[])`
	_, err := r.db.Exec(ctx, query, conversationID, userIDs)
	if isUniqueViolation(err) {
		return repository.ErrDuplicateParticipant
	}
	return err
}

func (r *ParticipantRepo) GetByConversationID(ctx context.Context, conversationID uuid.UUID) ([]domain.Participant, error) {
	query := `
		SELECT p.id, p.conversation_id, p.user_id, p.created_at, u.username
		FROM conversation_participants p
		JOIN users u ON p.user_id = u.id
		WHERE p.conversation_id = $1
		ORDER BY p.created_at, p.id`

	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.ConversationID, &p.UserID, &p.JoinedAt, &p.Username); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *ParticipantRepo) IsUserInConversation(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM conversation_participants
			WHERE conversation_id = $1 AND user_id = $2
		)`
	var exists bool
	err := r.db.QueryRow(ctx, query, conversationID, userID).Scan(&exists)
	return exists, err
}
