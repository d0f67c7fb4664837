package service

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/relay/internal/domain"
	"github.com/vedran77/relay/internal/repository"
)

// memStore is an in-memory stand-in for the Postgres repositories. The
// adapters below give it the repository interfaces; memTx stages writes on a
// copy and only publishes them when the callback succeeds.
type memStore struct {
	mu sync.Mutex

	clock         time.Time
	users         map[uuid.UUID]domain.User
	conversations map[uuid.UUID]domain.Conversation
	participants  []domain.Participant
	messages      []domain.Message
	deleted       map[uuid.UUID]bool

	failAddParticipants error
	lastLimit           int
	lastOffset          int

	calls *atomic.Int64
}

func newMemStore() *memStore {
	return &memStore{
		clock:         time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		users:         make(map[uuid.UUID]domain.User),
		conversations: make(map[uuid.UUID]domain.Conversation),
		deleted:       make(map[uuid.UUID]bool),
		calls:         new(atomic.Int64),
	}
}

func (m *memStore) addUser(username string) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.users[id] = domain.User{ID: id, Username: username, CreatedAt: m.clock, UpdatedAt: m.clock}
	return id
}

// seedConversation creates a conversation with the given members, bypassing
// the services.
func (m *memStore) seedConversation(members ...uuid.UUID) uuid.UUID {
	conv, _ := memConversations{m}.Create(context.Background())
	_ = memParticipants{m}.AddParticipants(context.Background(), conv.ID, members)
	return conv.ID
}

func (m *memStore) conversation(id uuid.UUID) domain.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversations[id]
}

func (m *memStore) conversationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.conversations)
}

func (m *memStore) members(convID uuid.UUID) []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []uuid.UUID
	for _, p := range m.participants {
		if p.ConversationID == convID {
			ids = append(ids, p.UserID)
		}
	}
	return ids
}

func (m *memStore) messageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// tick must be called with mu held.
func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Millisecond)
	return m.clock
}

// touch must be called with mu held.
func (m *memStore) touch(id uuid.UUID, at time.Time) {
	conv, ok := m.conversations[id]
	if !ok {
		return
	}
	if at.After(conv.UpdatedAt) {
		conv.UpdatedAt = at
		m.conversations[id] = conv
	}
}

func (m *memStore) clone() *memStore {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := &memStore{
		clock:               m.clock,
		users:               m.users,
		conversations:       make(map[uuid.UUID]domain.Conversation, len(m.conversations)),
		participants:        append([]domain.Participant(nil), m.participants...),
		messages:            append([]domain.Message(nil), m.messages...),
		deleted:             m.deleted,
		failAddParticipants: m.failAddParticipants,
		calls:               m.calls,
	}
	for k, v := range m.conversations {
		c.conversations[k] = v
	}
	return c
}

type memUsers struct{ *memStore }

func (m memUsers) ValidateUserIDs(_ context.Context, ids []uuid.UUID) ([]uuid.UUID, []uuid.UUID, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	var valid, invalid []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := m.users[id]; ok {
			valid = append(valid, id)
		} else {
			invalid = append(invalid, id)
		}
	}
	return valid, invalid, nil
}

type memConversations struct{ *memStore }

func (m memConversations) Create(_ context.Context) (*domain.Conversation, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.tick()
	conv := domain.Conversation{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
	m.conversations[conv.ID] = conv
	return &conv, nil
}

func (m memConversations) GetByID(_ context.Context, id uuid.UUID) (*domain.Conversation, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[id]
	if !ok {
		return nil, nil
	}
	return &conv, nil
}

func (m memConversations) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	var convs []domain.Conversation
	for _, p := range m.participants {
		if p.UserID == userID {
			convs = append(convs, m.conversations[p.ConversationID])
		}
	}
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[i].UpdatedAt.After(convs[j].UpdatedAt)
	})
	return convs, nil
}

func (m memConversations) Touch(_ context.Context, id uuid.UUID) error {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touch(id, m.tick())
	return nil
}

type memParticipants struct{ *memStore }

func (m memParticipants) AddParticipants(_ context.Context, conversationID uuid.UUID, userIDs []uuid.UUID) error {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAddParticipants != nil {
		return m.failAddParticipants
	}

	existing := make(map[uuid.UUID]bool)
	for _, p := range m.participants {
		if p.ConversationID == conversationID {
			existing[p.UserID] = true
		}
	}
	for _, id := range userIDs {
		if existing[id] {
			return repository.ErrDuplicateParticipant
		}
		existing[id] = true
	}

	now := m.tick()
	for _, id := range userIDs {
		m.participants = append(m.participants, domain.Participant{
			ID:             uuid.New(),
			ConversationID: conversationID,
			UserID:         id,
			JoinedAt:       now,
		})
	}
	return nil
}

func (m memParticipants) GetByConversationID(_ context.Context, conversationID uuid.UUID) ([]domain.Participant, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Participant
	for _, p := range m.participants {
		if p.ConversationID == conversationID {
			p.Username = m.users[p.UserID].Username
			out = append(out, p)
		}
	}
	return out, nil
}

func (m memParticipants) IsUserInConversation(_ context.Context, conversationID, userID uuid.UUID) (bool, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.participants {
		if p.ConversationID == conversationID && p.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type memMessages struct{ *memStore }

func (m memMessages) Append(_ context.Context, conversationID, senderID uuid.UUID, content string) (*domain.Message, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      m.tick(),
	}
	m.messages = append(m.messages, msg)
	m.touch(conversationID, msg.CreatedAt)
	return &msg, nil
}

func (m memMessages) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, msg := range m.messages {
		if msg.ID == id && !m.deleted[id] {
			return &msg, nil
		}
	}
	return nil, nil
}

// visible returns the conversation's live messages newest first. mu must be held.
func (m memMessages) visible(conversationID uuid.UUID) []domain.Message {
	var out []domain.Message
	for i := len(m.messages) - 1; i >= 0; i-- {
		msg := m.messages[i]
		if msg.ConversationID == conversationID && !m.deleted[msg.ID] {
			out = append(out, msg)
		}
	}
	return out
}

func (m memMessages) ListByConversation(_ context.Context, conversationID uuid.UUID, limit, offset int) ([]domain.Message, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastLimit, m.lastOffset = limit, offset

	all := m.visible(conversationID)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m memMessages) LastMessage(_ context.Context, conversationID uuid.UUID) (*domain.Message, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.visible(conversationID)
	if len(all) == 0 {
		return nil, nil
	}
	return &all[0], nil
}

func (m memMessages) CountUnread(_ context.Context, conversationID, userID uuid.UUID) (int, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, msg := range m.visible(conversationID) {
		if msg.SenderID != userID && !msg.IsRead {
			n++
		}
	}
	return n, nil
}

func (m memMessages) MarkRead(_ context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for i := range m.messages {
		msg := &m.messages[i]
		if msg.ConversationID == conversationID && msg.SenderID != readerID && !msg.IsRead && !m.deleted[msg.ID] {
			msg.IsRead = true
			n++
		}
	}
	if n > 0 {
		m.touch(conversationID, m.tick())
	}
	return n, nil
}

func (m memMessages) SoftDelete(_ context.Context, id uuid.UUID) error {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, msg := range m.messages {
		if msg.ID == id && !m.deleted[id] {
			m.deleted[id] = true
			m.touch(msg.ConversationID, m.tick())
			return nil
		}
	}
	return nil
}

type memTx struct{ *memStore }

func (m memTx) WithinTx(_ context.Context, fn func(stores repository.Stores) error) error {
	staged := m.clone()
	if err := fn(repository.Stores{
		Conversations: memConversations{staged},
		Participants:  memParticipants{staged},
	}); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = staged.clock
	m.conversations = staged.conversations
	m.participants = staged.participants
	m.messages = staged.messages
	return nil
}

func newConversationService(m *memStore) *ConversationService {
	return NewConversationService(memUsers{m}, memParticipants{m}, memTx{m})
}

func newMessagingService(m *memStore) *MessagingService {
	return NewMessagingService(memConversations{m}, memParticipants{m}, memMessages{m})
}
