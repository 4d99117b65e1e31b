package auth

import (
	"encoding/json"
	"net/http"
	"time"
)

// RequireSession rejects requests without a live session and puts the
// session on the request context for downstream handlers.
func (s *Service) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.AuthenticateRequest(r, time.Now())
		if !ok {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(withSessionContext(r.Context(), sess)))
	})
}
