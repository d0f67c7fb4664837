package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vedran77/relay/internal/domain"
)

// ErrDuplicateParticipant is returned when a (conversation, user) pair
// already exists. Stores never deduplicate on their own.
var ErrDuplicateParticipant = errors.New("participant already exists in conversation")

type UserRepository interface {
	// ValidateUserIDs partitions ids into those present in the user
	// directory and those that are not. Duplicates collapse.
	ValidateUserIDs(ctx context.Context, ids []uuid.UUID) (valid, invalid []uuid.UUID, err error)
}

type ConversationRepository interface {
	Create(ctx context.Context) (*domain.Conversation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error)
	// Touch advances the last-activity timestamp to the store's current
	// time. It never moves it backwards.
	Touch(ctx context.Context, id uuid.UUID) error
}

type ParticipantRepository interface {
	AddParticipants(ctx context.Context, conversationID uuid.UUID, userIDs []uuid.UUID) error
	GetByConversationID(ctx context.Context, conversationID uuid.UUID) ([]domain.Participant, error)
	IsUserInConversation(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
}

type MessageRepository interface {
	Append(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*domain.Message, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]domain.Message, error)
	LastMessage(ctx context.Context, conversationID uuid.UUID) (*domain.Message, error)
	CountUnread(ctx context.Context, conversationID, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// Stores is the set of repositories bound to a single transaction.
type Stores struct {
	Conversations ConversationRepository
	Participants  ParticipantRepository
}

type Transactor interface {
	// WithinTx runs fn inside one transaction. The transaction commits if
	// fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(stores Stores) error) error
}
