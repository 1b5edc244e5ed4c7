package sessions

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"filterflix/models"
)

// Service issues and validates opaque session tokens. Sessions are held in
// memory only; a restart signs everyone out, which matches the product's
// session-scoped login.
type Service struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]models.Session
}

// NewService creates a session service with the given token lifetime.
func NewService(ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		ttl:      ttl,
		sessions: make(map[string]models.Session),
	}
}

// Create issues a fresh session for the username.
func (s *Service) Create(username string) models.Session {
	now := time.Now().UTC()
	session := models.Session{
		Token:     uuid.NewString(),
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.sessions[session.Token] = session
	return session
}

// Validate resolves a token to its session, dropping it when expired.
func (s *Service) Validate(token string) (models.Session, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Session{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return models.Session{}, false
	}
	if session.Expired(time.Now().UTC()) {
		delete(s.sessions, token)
		return models.Session{}, false
	}
	return session, true
}

// Revoke removes a session. Unknown tokens are a no-op.
func (s *Service) Revoke(token string) {
	token = strings.TrimSpace(token)
	if token == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
}

func (s *Service) pruneLocked(now time.Time) {
	for token, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, token)
		}
	}
}
