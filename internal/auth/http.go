package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// POST /api/auth/google
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Credential string `json:"credential"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	u, token, exp, err := h.service.SignIn(in.Credential, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredential), errors.Is(err, ErrCredentialExpired):
			writeErr(w, http.StatusUnauthorized, err.Error())
		default:
			writeErr(w, http.StatusInternalServerError, "could not sign in")
		}
		return
	}

	h.service.SetSessionCookie(w, r, token, exp)

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"user":      u,
		"token":     token,
		"expiresAt": exp.Format(time.RFC3339),
	})
}

// GET /api/auth/session
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.service.AuthenticateRequest(r, time.Now())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"user":      sess.User,
		"expiresAt": sess.ExpiresAt.Format(time.RFC3339),
	})
}

// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.service.Logout(h.service.TokenFromRequest(r))
	h.service.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
