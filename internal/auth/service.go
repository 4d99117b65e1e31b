package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var ErrNoSession = errors.New("no valid session")

// Service issues and resolves sessions backed by a Google sign-in
// credential. Sessions live in memory: signing in again recreates them,
// so nothing here needs to survive a restart.
type Service struct {
	mu       sync.Mutex
	sessions map[string]Session // keyed by token hash

	logger *log.Logger

	cookieName string
	sessionTTL time.Duration
}

func NewService(logger *log.Logger, sessionTTL time.Duration) *Service {
	if logger == nil {
		logger = log.Default()
	}
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	return &Service{
		sessions:   map[string]Session{},
		logger:     logger,
		cookieName: "taskman_session",
		sessionTTL: sessionTTL,
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

// SignIn validates the provider credential and opens a session. The
// credential is retained as the bearer for calendar calls.
func (s *Service) SignIn(credential string, now time.Time) (User, string, time.Time, error) {
	u, err := DecodeCredential(credential, now)
	if err != nil {
		return User{}, "", time.Time{}, err
	}

	token, err := generateToken()
	if err != nil {
		return User{}, "", time.Time{}, err
	}

	sess := Session{
		ID:        uuid.NewString(),
		User:      u,
		TokenHash: hashToken(token),
		Bearer:    credential,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	s.mu.Lock()
	s.sessions[sess.TokenHash] = sess
	s.mu.Unlock()

	s.logger.Info("session opened", "email", u.Email, "expires_at", sess.ExpiresAt)
	return u, token, sess.ExpiresAt, nil
}

// Resolve looks up the session for a raw token.
func (s *Service) Resolve(token string, now time.Time) (Session, error) {
	if token == "" {
		return Session{}, ErrNoSession
	}
	key := hashToken(token)

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		return Session{}, ErrNoSession
	}
	if now.After(sess.ExpiresAt) {
		delete(s.sessions, key)
		return Session{}, ErrNoSession
	}
	return sess, nil
}

func (s *Service) Logout(token string) {
	if token == "" {
		return
	}
	s.mu.Lock()
	delete(s.sessions, hashToken(token))
	s.mu.Unlock()
}

// TokenFromRequest reads the session token from the cookie or, for
// non-browser callers, an Authorization bearer header.
func (s *Service) TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(s.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func (s *Service) AuthenticateRequest(r *http.Request, now time.Time) (Session, bool) {
	sess, err := s.Resolve(s.TokenFromRequest(r), now)
	if err != nil {
		return Session{}, false
	}
	return sess, true
}

func (s *Service) SetSessionCookie(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

func (s *Service) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
