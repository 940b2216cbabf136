package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Hasher wraps bcrypt with a configured cost.
type Hasher struct {
	cost int
}

// NewHasher creates a password hasher. Costs outside bcrypt's range fall back
// to the library default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of a password.
func (h *Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether a password matches a stored hash.
func (h *Hasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Session is one authenticated connection lease.
type Session struct {
	Token     string
	Account   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// TokenStore issues and validates session tokens in memory.
type TokenStore struct {
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewTokenStore creates a token store with the given session lifetime.
func NewTokenStore(ttl time.Duration) *TokenStore {
	return &TokenStore{
		ttl:      ttl,
		sessions: make(map[string]*Session),
	}
}

// Issue creates a session for an account and returns its token.
func (s *TokenStore) Issue(account string) *Session {
	now := time.Now()
	session := &Session{
		Token:     uuid.NewString(),
		Account:   account,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()
	return session
}

// Validate returns the session for a token if it exists and has not expired.
func (s *TokenStore) Validate(token string) (*Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok || time.Now().After(session.ExpiresAt) {
		return nil, false
	}
	return session, true
}

// Revoke removes a session.
func (s *TokenStore) Revoke(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// Sweep drops every expired session and returns how many were removed.
func (s *TokenStore) Sweep() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}
