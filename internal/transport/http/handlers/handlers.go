package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vedran77/relay/internal/repository"
	"github.com/vedran77/relay/internal/service"
	"github.com/vedran77/relay/internal/transport/http/respond"
	"github.com/vedran77/relay/pkg/validator"
)

// maxBodyBytes bounds every request body. The longest valid message is far
// below it.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data any) {
	respond.JSON(w, status, data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	respond.Error(w, status, code, message, nil)
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	details := make(map[string]any, len(errs))
	for field, msg := range errs {
		details[field] = msg
	}
	respond.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request", details)
}

// decode reads the JSON body into dst and runs its validate tags. It writes
// the error response itself and reports false when the request is unusable.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body is too large")
			return false
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			respond.Error(w, http.StatusBadRequest, "INVALID_FIELD",
				fmt.Sprintf("%s has the wrong type", typeErr.Field),
				map[string]any{"field": typeErr.Field})
			return false
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid JSON")
		return false
	}

	if errs := validator.Struct(dst); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return false
	}
	return true
}

// parseID parses an identifier field. Any case is accepted.
func parseID(w http.ResponseWriter, field, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request",
			map[string]any{field: field + " must be a valid UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError maps service and repository errors to HTTP statuses.
// Anything unrecognised is logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	var invalid *service.InvalidParticipantsError
	switch {
	case errors.As(err, &invalid):
		ids := make([]string, len(invalid.IDs))
		for i, id := range invalid.IDs {
			ids[i] = id.String()
		}
		respond.Error(w, http.StatusBadRequest, "INVALID_PARTICIPANTS", "Invalid user IDs",
			map[string]any{"invalid_ids": ids})
	case errors.Is(err, service.ErrEmptyContent):
		writeError(w, http.StatusBadRequest, "EMPTY_CONTENT", "Message content cannot be empty")
	case errors.Is(err, service.ErrContentTooLong):
		writeError(w, http.StatusBadRequest, "CONTENT_TOO_LONG", "Message content is too long")
	case errors.Is(err, service.ErrNoOtherParticipants):
		writeError(w, http.StatusBadRequest, "NO_PARTICIPANTS", "A conversation needs at least one other participant")
	case errors.Is(err, service.ErrNotParticipant):
		writeError(w, http.StatusForbidden, "NOT_PARTICIPANT", "User is not a participant of this conversation")
	case errors.Is(err, service.ErrNotMessageOwner):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Only the message sender can delete it")
	case errors.Is(err, service.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
	case errors.Is(err, service.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Message not found")
	case errors.Is(err, service.ErrAlreadyParticipant), errors.Is(err, repository.ErrDuplicateParticipant):
		writeError(w, http.StatusConflict, "CONFLICT", "User is already a participant of this conversation")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("operation", operation).Msg("unexpected error")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
