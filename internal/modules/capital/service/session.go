package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"captrader/internal/models"
	"captrader/pkg/logger"
)

const (
	sessionTTL    = 10 * time.Minute
	authJitterMin = 100 * time.Millisecond
	authJitterMax = 500 * time.Millisecond
)

// SessionStore is the single-slot cache for broker session tokens. The
// check-and-refresh runs as one critical section so concurrent callers
// cannot each hit the auth endpoint and clobber one another; tokens are
// fungible, so last-writer-wins on the stored value is fine.
type SessionStore struct {
	mu     sync.Mutex
	tokens models.SessionTokens
	authFn func(ctx context.Context) (models.SessionTokens, error)
}

func NewSessionStore(authFn func(ctx context.Context) (models.SessionTokens, error)) *SessionStore {
	return &SessionStore{authFn: authFn}
}

// Tokens returns cached tokens, refreshing them when missing or expired.
func (s *SessionStore) Tokens(ctx context.Context) (models.SessionTokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tokens.Valid(time.Now()) {
		return s.tokens, nil
	}

	// Jitter spreads re-auth attempts from restarting replicas.
	jitter := authJitterMin + time.Duration(rand.Int63n(int64(authJitterMax-authJitterMin)))
	select {
	case <-time.After(jitter):
	case <-ctx.Done():
		return models.SessionTokens{}, ctx.Err()
	}

	tokens, err := s.authFn(ctx)
	if err != nil {
		return models.SessionTokens{}, err
	}
	s.tokens = tokens
	logger.Info("session refreshed, expires %s", tokens.Expiry.Format(time.RFC3339))
	return tokens, nil
}

// Invalidate drops the cached tokens so the next caller re-authenticates.
// Used when the broker answers 401 before the local TTL ran out.
func (s *SessionStore) Invalidate() {
	s.mu.Lock()
	s.tokens = models.SessionTokens{}
	s.mu.Unlock()
}
