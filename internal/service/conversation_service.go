package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vedran77/relay/internal/domain"
	"github.com/vedran77/relay/internal/repository"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("user is not a participant of this conversation")
	ErrAlreadyParticipant   = errors.New("user is already a participant of this conversation")
	ErrInvalidParticipants  = errors.New("invalid user ids")
	ErrNoOtherParticipants  = errors.New("a conversation needs at least one participant besides the creator")
)

// InvalidParticipantsError names the identifiers that are not in the user
// directory. It matches ErrInvalidParticipants with errors.Is.
type InvalidParticipantsError struct {
	IDs []uuid.UUID
}

func (e *InvalidParticipantsError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("invalid user ids: %s", strings.Join(ids, ", "))
}

func (e *InvalidParticipantsError) Is(target error) bool {
	return target == ErrInvalidParticipants
}

type ConversationService struct {
	userRepo        repository.UserRepository
	participantRepo repository.ParticipantRepository
	tx              repository.Transactor
	allowSolo       bool
}

func NewConversationService(
	userRepo repository.UserRepository,
	participantRepo repository.ParticipantRepository,
	tx repository.Transactor,
) *ConversationService {
	return &ConversationService{
		userRepo:        userRepo,
		participantRepo: participantRepo,
		tx:              tx,
		allowSolo:       true,
	}
}

// SetAllowSolo controls whether a conversation may be created with the
// creator as its only participant. Allowed by default.
func (s *ConversationService) SetAllowSolo(allow bool) {
	s.allowSolo = allow
}

// CreateConversation creates a conversation whose participants are the
// requested users plus the creator. Either the conversation and all of its
// participant rows are committed, or nothing is.
func (s *ConversationService) CreateConversation(ctx context.Context, requested []uuid.UUID, creatorID uuid.UUID) (*domain.Conversation, error) {
	ids := participantSet(requested, creatorID)
	if !s.allowSolo && len(ids) < 2 {
		return nil, ErrNoOtherParticipants
	}

	valid, invalid, err := s.userRepo.ValidateUserIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("validating participants: %w", err)
	}
	if len(invalid) > 0 {
		return nil, &InvalidParticipantsError{IDs: invalid}
	}

	var conv *domain.Conversation
	err = s.tx.WithinTx(ctx, func(stores repository.Stores) error {
		created, err := stores.Conversations.Create(ctx)
		if err != nil {
			return fmt.Errorf("creating conversation: %w", err)
		}
		if err := stores.Participants.AddParticipants(ctx, created.ID, valid); err != nil {
			return fmt.Errorf("adding participants: %w", err)
		}
		conv = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return conv, nil
}

// AddParticipant adds userID to an existing conversation. Only current
// participants may add others.
func (s *ConversationService) AddParticipant(ctx context.Context, conversationID, userID, requesterID uuid.UUID) error {
	ok, err := s.participantRepo.IsUserInConversation(ctx, conversationID, requesterID)
	if err != nil {
		return fmt.Errorf("checking membership: %w", err)
	}
	if !ok {
		return ErrNotParticipant
	}

	_, invalid, err := s.userRepo.ValidateUserIDs(ctx, []uuid.UUID{userID})
	if err != nil {
		return fmt.Errorf("validating participant: %w", err)
	}
	if len(invalid) > 0 {
		return &InvalidParticipantsError{IDs: invalid}
	}

	err = s.participantRepo.AddParticipants(ctx, conversationID, []uuid.UUID{userID})
	if errors.Is(err, repository.ErrDuplicateParticipant) {
		return ErrAlreadyParticipant
	}
	if err != nil {
		return fmt.Errorf("adding participant: %w", err)
	}
	return nil
}

// participantSet returns requested ∪ {creator} without duplicates. The
// creator comes first; the rest keep their request order.
func participantSet(requested []uuid.UUID, creatorID uuid.UUID) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(requested)+1)
	seen := make(map[uuid.UUID]struct{}, len(requested)+1)

	ids = append(ids, creatorID)
	seen[creatorID] = struct{}{}

	for _, id := range requested {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
