// Package session holds the current authenticated identity. The store never
// checks credentials itself; it only keeps the opaque token issued by the
// identity collaborator and the projection derived from validating it.
package session

import (
	"context"
	"sync"

	"github.com/example/worldpeas/pkg/localcache"
	"github.com/example/worldpeas/pkg/models"
	"go.uber.org/zap"
)

// TokenVerifier validates an opaque bearer token against the identity
// collaborator.
type TokenVerifier interface {
	GetUser(ctx context.Context, token string) (*models.Identity, error)
}

type Store struct {
	mu       sync.RWMutex
	identity *models.Identity

	cache    *localcache.Cache
	verifier TokenVerifier
	logger   *zap.Logger
}

func NewStore(cache *localcache.Cache, verifier TokenVerifier, logger *zap.Logger) *Store {
	return &Store{
		cache:    cache,
		verifier: verifier,
		logger:   logger,
	}
}

// Restore validates the persisted token, if any. A valid token populates the
// identity; an invalid or erroring validation clears the stored token and
// leaves the store logged out.
func (s *Store) Restore(ctx context.Context) {
	token := s.cache.Token()
	if token == "" {
		s.setIdentity(nil)
		return
	}

	ident, err := s.verifier.GetUser(ctx, token)
	if err != nil {
		s.logger.Warn("Stored token rejected, logging out", zap.Error(err))
		if err := s.cache.ClearToken(); err != nil {
			s.logger.Warn("Failed to clear stored token", zap.Error(err))
		}
		s.setIdentity(nil)
		return
	}

	s.setIdentity(ident)
	s.logger.Info("Session restored", zap.String("email", ident.Email))
}

// Login validates a freshly issued token, persists it and populates the
// identity. The token comes from the external login or signup flow.
func (s *Store) Login(ctx context.Context, token string) error {
	ident, err := s.verifier.GetUser(ctx, token)
	if err != nil {
		return err
	}
	if err := s.cache.SaveToken(token); err != nil {
		s.logger.Warn("Failed to persist session token", zap.Error(err))
	}
	s.setIdentity(ident)
	s.logger.Info("Logged in", zap.String("email", ident.Email))
	return nil
}

// Logout clears the identity and the persisted token.
func (s *Store) Logout() {
	if err := s.cache.ClearToken(); err != nil {
		s.logger.Warn("Failed to clear stored token", zap.Error(err))
	}
	s.setIdentity(nil)
}

// Identity returns the current identity, if logged in.
func (s *Store) Identity() (*models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil, false
	}
	ident := *s.identity
	return &ident, true
}

// LoggedIn reports whether a validated identity is present.
func (s *Store) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

func (s *Store) setIdentity(ident *models.Identity) {
	s.mu.Lock()
	s.identity = ident
	s.mu.Unlock()
}
