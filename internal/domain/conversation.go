package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation.UpdatedAt is the last-activity timestamp. It only moves
// forward, and only as a side effect of message writes.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Participant struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	JoinedAt       time.Time `json:"joined_at"`
	// Joined fields
	Username string `json:"username,omitempty"`
}
