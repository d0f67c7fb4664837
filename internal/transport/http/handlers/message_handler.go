package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/vedran77/relay/internal/domain"
	"github.com/vedran77/relay/internal/metrics"
	"github.com/vedran77/relay/internal/service"
	"github.com/vedran77/relay/internal/transport/http/middleware"
)

type MessagingService interface {
	SendMessage(ctx context.Context, conversationID uuid.UUID, content string, senderID uuid.UUID) (*domain.Message, error)
	MarkMessagesAsRead(ctx context.Context, conversationID, readerID uuid.UUID) error
	ListMessages(ctx context.Context, conversationID, requesterID uuid.UUID, limit, offset int) ([]domain.Message, error)
	ListConversationsForUser(ctx context.Context, userID uuid.UUID) ([]service.ConversationSummary, error)
	GetConversation(ctx context.Context, conversationID, requesterID uuid.UUID) (*service.ConversationSummary, error)
	DeleteMessage(ctx context.Context, messageID, requesterID uuid.UUID) error
}

type MessageHandler struct {
	messagingService MessagingService
	metrics          *metrics.Metrics
}

func NewMessageHandler(messagingService MessagingService, m *metrics.Metrics) *MessageHandler {
	return &MessageHandler{messagingService: messagingService, metrics: m}
}

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Content        string `json:"content" validate:"required"`
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input sendMessageRequest
	if !decode(w, r, &input) {
		return
	}
	convID, ok := parseID(w, "conversation_id", input.ConversationID)
	if !ok {
		return
	}

	msg, err := h.messagingService.SendMessage(r.Context(), convID, input.Content, userID)
	if err != nil {
		writeServiceError(w, r, "send-message", err)
		return
	}

	if h.metrics != nil {
		h.metrics.MessagesSent.Inc()
	}
	writeJSON(w, http.StatusOK, msg)
}

type conversationRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
}

func (h *MessageHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input conversationRequest
	if !decode(w, r, &input) {
		return
	}
	convID, ok := parseID(w, "conversation_id", input.ConversationID)
	if !ok {
		return
	}

	if err := h.messagingService.MarkMessagesAsRead(r.Context(), convID, userID); err != nil {
		writeServiceError(w, r, "mark-messages-as-read", err)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

type listConversationsResponse struct {
	Conversations []service.ConversationSummary `json:"conversations"`
}

// ListConversations takes no body; the caller is the only input.
func (h *MessageHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convs, err := h.messagingService.ListConversationsForUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "get-user-conversations", err)
		return
	}
	if convs == nil {
		convs = []service.ConversationSummary{}
	}

	writeJSON(w, http.StatusOK, listConversationsResponse{Conversations: convs})
}

type getConversationResponse struct {
	Conversation *service.ConversationSummary `json:"conversation"`
}

func (h *MessageHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input conversationRequest
	if !decode(w, r, &input) {
		return
	}
	convID, ok := parseID(w, "conversation_id", input.ConversationID)
	if !ok {
		return
	}

	summary, err := h.messagingService.GetConversation(r.Context(), convID, userID)
	if err != nil {
		writeServiceError(w, r, "get-conversation", err)
		return
	}

	writeJSON(w, http.StatusOK, getConversationResponse{Conversation: summary})
}

type listMessagesRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Limit          int    `json:"limit"`
	Offset         int    `json:"offset" validate:"min=0"`
}

type listMessagesResponse struct {
	Messages []domain.Message `json:"messages"`
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input listMessagesRequest
	if !decode(w, r, &input) {
		return
	}
	convID, ok := parseID(w, "conversation_id", input.ConversationID)
	if !ok {
		return
	}

	msgs, err := h.messagingService.ListMessages(r.Context(), convID, userID, input.Limit, input.Offset)
	if err != nil {
		writeServiceError(w, r, "get-conversation-messages", err)
		return
	}

	writeJSON(w, http.StatusOK, listMessagesResponse{Messages: msgs})
}

type deleteMessageRequest struct {
	MessageID string `json:"message_id" validate:"required"`
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input deleteMessageRequest
	if !decode(w, r, &input) {
		return
	}
	msgID, ok := parseID(w, "message_id", input.MessageID)
	if !ok {
		return
	}

	if err := h.messagingService.DeleteMessage(r.Context(), msgID, userID); err != nil {
		writeServiceError(w, r, "delete-message", err)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}
