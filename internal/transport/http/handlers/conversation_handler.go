package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/vedran77/relay/internal/domain"
	"github.com/vedran77/relay/internal/metrics"
	"github.com/vedran77/relay/internal/transport/http/middleware"
)

type ConversationService interface {
	CreateConversation(ctx context.Context, requested []uuid.UUID, creatorID uuid.UUID) (*domain.Conversation, error)
	AddParticipant(ctx context.Context, conversationID, userID, requesterID uuid.UUID) error
}

type ConversationHandler struct {
	conversationService ConversationService
	metrics             *metrics.Metrics
}

func NewConversationHandler(conversationService ConversationService, m *metrics.Metrics) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService, metrics: m}
}

type createConversationRequest struct {
	ParticipantIDs []string `json:"participant_ids" validate:"required"`
}

type createConversationResponse struct {
	ID uuid.UUID `json:"id"`
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input createConversationRequest
	if !decode(w, r, &input) {
		return
	}

	requested := make([]uuid.UUID, 0, len(input.ParticipantIDs))
	for i, raw := range input.ParticipantIDs {
		id, ok := parseID(w, fmt.Sprintf("participant_ids[%d]", i), raw)
		if !ok {
			return
		}
		requested = append(requested, id)
	}

	conv, err := h.conversationService.CreateConversation(r.Context(), requested, userID)
	if err != nil {
		writeServiceError(w, r, "create-conversation", err)
		return
	}

	if h.metrics != nil {
		h.metrics.ConversationsCreated.Inc()
	}
	writeJSON(w, http.StatusOK, createConversationResponse{ID: conv.ID})
}

type addParticipantRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	UserID         string `json:"user_id" validate:"required"`
}

func (h *ConversationHandler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.GetUserID(r.Context())

	var input addParticipantRequest
	if !decode(w, r, &input) {
		return
	}
	convID, ok := parseID(w, "conversation_id", input.ConversationID)
	if !ok {
		return
	}
	userID, ok := parseID(w, "user_id", input.UserID)
	if !ok {
		return
	}

	if err := h.conversationService.AddParticipant(r.Context(), convID, userID, requesterID); err != nil {
		writeServiceError(w, r, "add-participant", err)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}
