package mw

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/smartmark/smartmark/internal/auth"
	"github.com/smartmark/smartmark/internal/logger"
)

// RequireSession rejects requests without a valid session cookie.
// API and websocket callers get a 401 JSON body; browser page requests
// are redirected to the login page instead.
func RequireSession(sessions *auth.Manager, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.FromRequest(r)
			if err != nil {
				log.Debug("unauthenticated request",
					logger.String("path", r.URL.Path),
					logger.Error(err))

				if wantsJSON(r) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					_ = json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
					return
				}
				http.Redirect(w, r, "/auth/login", http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
		})
	}
}

func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/ws") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
