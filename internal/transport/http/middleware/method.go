package middleware

import (
	"net/http"

	"github.com/vedran77/relay/internal/transport/http/respond"
)

// PostOnly answers anything but POST with 405.
func PostOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST, OPTIONS")
			respond.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
