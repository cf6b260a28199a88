package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/enersync/utility_sync_app/internal/apperrors"
	"github.com/enersync/utility_sync_app/internal/core/ports"
)

// SessionGuard keeps the provider session alive. It logs in on first use and
// cycles the session (logout then login) once the configured login timeout
// has elapsed, so long-running deployments never operate on a stale session.
type SessionGuard struct {
	provider     ports.SessionProvider
	loginTimeout time.Duration
	logger       *slog.Logger
	now          func() time.Time

	mu            sync.Mutex
	authenticated bool
	lastLogin     time.Time
}

// SessionGuardOption customizes a SessionGuard.
type SessionGuardOption func(*SessionGuard)

// WithClock overrides the time source.
func WithClock(now func() time.Time) SessionGuardOption {
	return func(g *SessionGuard) {
		g.now = now
	}
}

func NewSessionGuard(provider ports.SessionProvider, loginTimeout time.Duration, logger *slog.Logger, opts ...SessionGuardOption) *SessionGuard {
	g := &SessionGuard{
		provider:     provider,
		loginTimeout: loginTimeout,
		logger:       logger,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// EnsureSession guarantees a usable session before a provider operation. A
// failed refresh leaves the guard unauthenticated so the next call retries
// the full login.
func (g *SessionGuard) EnsureSession(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case !g.authenticated:
		if err := g.provider.Login(ctx); err != nil {
			return fmt.Errorf("%w: login: %v", apperrors.ErrAuthentication, err)
		}

	case g.now().Sub(g.lastLogin) >= g.loginTimeout:
		g.logger.Debug("session exceeded login timeout, refreshing")
		g.authenticated = false
		if err := g.provider.Logout(ctx); err != nil {
			return fmt.Errorf("%w: logout during session refresh: %v", apperrors.ErrAuthentication, err)
		}
		if err := g.provider.Login(ctx); err != nil {
			return fmt.Errorf("%w: login during session refresh: %v", apperrors.ErrAuthentication, err)
		}

	default:
		return nil
	}

	g.authenticated = true
	g.lastLogin = g.now()
	return nil
}

// Close releases the provider session, if any.
func (g *SessionGuard) Close(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.authenticated {
		return nil
	}
	g.authenticated = false
	return g.provider.Logout(ctx)
}
