package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/vedran77/relay/internal/auth"
	"github.com/vedran77/relay/internal/metrics"
	"github.com/vedran77/relay/internal/transport/http/middleware"
)

const FunctionsPrefix = "/functions/v1/"

type RouterConfig struct {
	Resolver          auth.Resolver
	Metrics           *metrics.Metrics
	Logger            zerolog.Logger
	RequestTimeout    time.Duration
	CORSAllowedOrigin string
	// SendLimiter throttles send-message per caller. Nil disables it.
	SendLimiter *middleware.RateLimiter
}

// NewRouter mounts every operation at /functions/v1/<operation>. Each one
// runs behind observe → CORS → POST only → auth → timeout.
func NewRouter(conversations *ConversationHandler, messages *MessageHandler, cfg RouterConfig) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}

	mux := http.NewServeMux()

	route := func(operation string, h http.HandlerFunc, inner ...func(http.Handler) http.Handler) {
		var handler http.Handler = h
		for i := len(inner) - 1; i >= 0; i-- {
			handler = inner[i](handler)
		}
		handler = middleware.Timeout(cfg.RequestTimeout)(handler)
		handler = middleware.Auth(cfg.Resolver)(handler)
		handler = middleware.PostOnly(handler)
		handler = middleware.CORS(cfg.CORSAllowedOrigin)(handler)
		handler = middleware.Observe(operation, cfg.Metrics, cfg.Logger)(handler)

		mux.Handle(FunctionsPrefix+operation, handler)
	}

	// Conversations
	route("create-conversation", conversations.Create)
	route("add-participant", conversations.AddParticipant)
	route("get-user-conversations", messages.ListConversations)
	route("get-conversation", messages.GetConversation)

	// Messages
	route("send-message", messages.Send, cfg.SendLimiter.Middleware(cfg.Metrics))
	route("mark-messages-as-read", messages.MarkAsRead)
	route("get-conversation-messages", messages.List)
	route("delete-message", messages.Delete)

	return mux
}
