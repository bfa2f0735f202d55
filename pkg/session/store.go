package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is an opaque bearer token.
type Credential string

// Store holds the credential of the current session in memory.
// The zero value is an empty store ready to use.
type Store struct {
	mu         sync.RWMutex
	credential Credential
	claims     *jwt.RegisteredClaims
	now        func() time.Time
}

func NewStore() *Store {
	return &Store{}
}

// Get returns the current credential.
// A credential that is a JWT with an expiry in the past is reported as absent.
func (s *Store) Get() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.credential == "" {
		return "", false
	}
	if s.claims != nil && s.claims.ExpiresAt != nil && !s.clock().Before(s.claims.ExpiresAt.Time) {
		return "", false
	}
	return s.credential, true
}

// Set stores c, replacing any previous credential.
func (s *Store) Set(c Credential) {
	claims := parseClaims(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = c
	s.claims = claims
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = ""
	s.claims = nil
}

// Subject returns the "sub" claim of a JWT credential, empty for opaque tokens.
func (s *Store) Subject() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.claims == nil {
		return ""
	}
	return s.claims.Subject
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// parseClaims reads the registered claims without verifying the signature:
// the backend owns the key, the client only needs sub and exp.
func parseClaims(c Credential) *jwt.RegisteredClaims {
	if c == "" {
		return nil
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(string(c), claims); err != nil {
		return nil
	}
	return claims
}
