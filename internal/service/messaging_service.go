package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/vedran77/relay/internal/domain"
	"github.com/vedran77/relay/internal/repository"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyContent    = errors.New("message content cannot be empty")
	ErrContentTooLong  = errors.New("message content is too long")
	ErrMessageNotFound = errors.New("message not found")
	ErrNotMessageOwner = errors.New("only the message sender can perform this action")
)

const (
	DefaultMessageLimit     = 50
	MaxMessageLimit         = 100
	DefaultMaxContentLength = 2000

	// summaryConcurrency bounds how many conversations are assembled at once.
	summaryConcurrency = 4
)

type ConversationSummary struct {
	domain.Conversation
	Participants []domain.Participant `json:"participants"`
	LastMessage  *domain.Message      `json:"last_message,omitempty"`
	UnreadCount  int                  `json:"unread_count"`
}

type MessagingService struct {
	conversationRepo repository.ConversationRepository
	participantRepo  repository.ParticipantRepository
	messageRepo      repository.MessageRepository
	maxContentLength int
}

func NewMessagingService(
	conversationRepo repository.ConversationRepository,
	participantRepo repository.ParticipantRepository,
	messageRepo repository.MessageRepository,
) *MessagingService {
	return &MessagingService{
		conversationRepo: conversationRepo,
		participantRepo:  participantRepo,
		messageRepo:      messageRepo,
		maxContentLength: DefaultMaxContentLength,
	}
}

// SetMaxContentLength sets the message length bound in runes. Zero or less
// disables the check.
func (s *MessagingService) SetMaxContentLength(n int) {
	s.maxContentLength = n
}

// SendMessage appends a message from senderID. The sender must currently be a
// participant; the store advances the conversation's activity timestamp.
func (s *MessagingService) SendMessage(ctx context.Context, conversationID uuid.UUID, content string, senderID uuid.UUID) (*domain.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if s.maxContentLength > 0 && utf8.RuneCountInString(content) > s.maxContentLength {
		return nil, ErrContentTooLong
	}

	if err := s.checkParticipant(ctx, conversationID, senderID); err != nil {
		return nil, err
	}

	msg, err := s.messageRepo.Append(ctx, conversationID, senderID, content)
	if err != nil {
		return nil, fmt.Errorf("appending message: %w", err)
	}
	return msg, nil
}

// MarkMessagesAsRead marks every message readerID received in the
// conversation as read. Messages readerID sent are left alone.
func (s *MessagingService) MarkMessagesAsRead(ctx context.Context, conversationID, readerID uuid.UUID) error {
	if err := s.checkParticipant(ctx, conversationID, readerID); err != nil {
		return err
	}

	if _, err := s.messageRepo.MarkRead(ctx, conversationID, readerID); err != nil {
		return fmt.Errorf("marking messages read: %w", err)
	}
	return nil
}

// ListMessages returns one page of the conversation, newest first.
func (s *MessagingService) ListMessages(ctx context.Context, conversationID, requesterID uuid.UUID, limit, offset int) ([]domain.Message, error) {
	if err := s.checkParticipant(ctx, conversationID, requesterID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if limit > MaxMessageLimit {
		limit = MaxMessageLimit
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := s.messageRepo.ListByConversation(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// ListConversationsForUser returns every conversation userID participates
// in, most recently active first.
func (s *MessagingService) ListConversationsForUser(ctx context.Context, userID uuid.UUID) ([]ConversationSummary, error) {
	convs, err := s.conversationRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}

	summaries := make([]ConversationSummary, len(convs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)
	for i, conv := range convs {
		g.Go(func() error {
			summary, err := s.summarize(gctx, conv, userID)
			if err != nil {
				return err
			}
			summaries[i] = *summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// GetConversation returns a single conversation summary for a participant.
func (s *MessagingService) GetConversation(ctx context.Context, conversationID, requesterID uuid.UUID) (*ConversationSummary, error) {
	if err := s.checkParticipant(ctx, conversationID, requesterID); err != nil {
		return nil, err
	}

	conv, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	return s.summarize(ctx, *conv, requesterID)
}

// DeleteMessage soft-deletes a message. Only its sender may delete it.
func (s *MessagingService) DeleteMessage(ctx context.Context, messageID, requesterID uuid.UUID) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("getting message: %w", err)
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.SenderID != requesterID {
		return ErrNotMessageOwner
	}

	if err := s.messageRepo.SoftDelete(ctx, messageID); err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	return nil
}

func (s *MessagingService) summarize(ctx context.Context, conv domain.Conversation, userID uuid.UUID) (*ConversationSummary, error) {
	participants, err := s.participantRepo.GetByConversationID(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("getting participants of %s: %w", conv.ID, err)
	}
	if participants == nil {
		participants = []domain.Participant{}
	}

	last, err := s.messageRepo.LastMessage(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("getting last message of %s: %w", conv.ID, err)
	}

	unread, err := s.messageRepo.CountUnread(ctx, conv.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("counting unread in %s: %w", conv.ID, err)
	}

	return &ConversationSummary{
		Conversation: conv,
		Participants: participants,
		LastMessage:  last,
		UnreadCount:  unread,
	}, nil
}

func (s *MessagingService) checkParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	ok, err := s.participantRepo.IsUserInConversation(ctx, conversationID, userID)
	if err != nil {
		return fmt.Errorf("checking membership: %w", err)
	}
	if !ok {
		return ErrNotParticipant
	}
	return nil
}
