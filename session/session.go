// Package session tracks the authenticated user and access token. The token
// and user are set and cleared together; the only transient exception is the
// token swap performed by a refresh.
package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/davemarchant/tienda-go/store"
	"github.com/davemarchant/tienda-go/users"
)

// Session is the process-wide authentication state, persisted to the local
// store under the "user" and "token" keys. Safe for concurrent use.
type Session struct {
	store  store.Store
	logger zerolog.Logger

	mu    sync.RWMutex
	token string
	user  *users.User
}

// New creates a session bound to the given store and restores any persisted
// state. Malformed persisted data is discarded rather than surfaced.
func New(st store.Store, logger zerolog.Logger) *Session {
	s := &Session{
		store:  st,
		logger: logger,
	}
	s.load()
	return s
}

// Token returns the current access token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a user is signed in.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *users.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// UserID returns the signed-in user's ID, or 0.
func (s *Session) UserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return 0
	}
	return s.user.ID
}

// IsAdmin reports whether the signed-in user has the administrator role.
func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.IsAdmin()
}

// Establish stores a freshly authenticated user and token.
func (s *Session) Establish(user users.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
	s.token = token
	s.persist()
}

// SetToken swaps the access token after a successful refresh, keeping the
// current user.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.persist()
}

// UpdateUser replaces the stored user profile, keeping the current token.
func (s *Session) UpdateUser(user users.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
	s.persist()
}

// Clear signs the session out and removes the persisted state.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	if err := s.store.Delete(store.KeyUser); err != nil {
		s.logger.Warn().Err(err).Msg("failed to delete persisted user")
	}
	if err := s.store.Delete(store.KeyToken); err != nil {
		s.logger.Warn().Err(err).Msg("failed to delete persisted token")
	}
}

// TokenExpiresAt reads the exp claim from the access token without verifying
// the signature (validation is the server's job). The second return is false
// when there is no token or the claim is absent.
func (s *Session) TokenExpiresAt() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// persist and load assume the caller holds the lock (load runs before the
// session is shared).
func (s *Session) persist() {
	if s.user != nil {
		data, err := json.Marshal(s.user)
		if err == nil {
			err = s.store.Set(store.KeyUser, data)
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to persist user")
		}
	}
	if err := s.store.Set(store.KeyToken, []byte(s.token)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist token")
	}
}

func (s *Session) load() {
	userData, userErr := s.store.Get(store.KeyUser)
	tokenData, tokenErr := s.store.Get(store.KeyToken)
	if userErr != nil || tokenErr != nil {
		return
	}

	var user users.User
	if err := json.Unmarshal(userData, &user); err != nil {
		s.logger.Warn().Err(err).Msg("discarding malformed persisted user")
		return
	}

	s.user = &user
	s.token = string(tokenData)
}
