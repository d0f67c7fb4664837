package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vedran77/relay/internal/auth"
	"github.com/vedran77/relay/internal/transport/http/respond"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// Auth rejects requests without a valid bearer token before anything reads
// the body, and stores the caller's id in the request context.
func Auth(resolver auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := resolver.UserID(r)
			if err != nil {
				message := "Invalid or expired token"
				if errors.Is(err, auth.ErrMissingToken) {
					message = "Missing or invalid authorization header"
				}
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("authentication failed")
				respond.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
				return
			}

			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("user_id", userID.String())
			})

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts user ID from request context. It returns uuid.Nil when
// the request did not pass through Auth.
func GetUserID(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(UserIDKey).(uuid.UUID)
	return id
}
