// ABOUTME: SessionGate tracks the paused/active state per external identity
// ABOUTME: Consulted before any automatic reply; pause is sticky until operator resume

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Session states.
const (
	StateActive = "active"
	StatePaused = "paused"
)

// Session is the pause/active control state for one external identity.
type Session struct {
	ExternalID string
	State      string
	PausedAt   *time.Time
	PausedBy   string
}

// Store persists session state so pauses survive a restart. The gate
// works without one (nil store): state is then process-local.
type Store interface {
	UpsertSession(ctx context.Context, s *Session) error
	ListPausedSessions(ctx context.Context) ([]*Session, error)
}

// Gate is the in-memory authority for session state. Sessions are
// created implicitly as active on first sight; only paused entries are
// tracked explicitly.
type Gate struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	store  Store
	logger *slog.Logger
}

// NewGate creates a session gate backed by the optional store.
func NewGate(store Store, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		sessions: make(map[string]*Session),
		store:    store,
		logger:   logger.With("component", "session"),
	}
}

// Hydrate loads persisted paused sessions into memory. Call once at
// startup, before serving traffic.
func (g *Gate) Hydrate(ctx context.Context) error {
	if g.store == nil {
		return nil
	}
	paused, err := g.store.ListPausedSessions(ctx)
	if err != nil {
		return fmt.Errorf("loading paused sessions: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range paused {
		copied := *s
		g.sessions[s.ExternalID] = &copied
	}
	g.logger.Debug("hydrated paused sessions", "count", len(paused))
	return nil
}

// IsPaused reports whether automatic replies are suspended for the
// external identity. Unknown identities are active.
func (g *Gate) IsPaused(externalID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.sessions[externalID]
	return ok && s.State == StatePaused
}

// Pause suspends automatic replies for the external identity.
// Idempotent: pausing an already-paused session keeps the original
// pause timestamp and actor.
func (g *Gate) Pause(ctx context.Context, externalID, byActor string) error {
	g.mu.Lock()
	s, ok := g.sessions[externalID]
	if ok && s.State == StatePaused {
		g.mu.Unlock()
		return nil
	}
	now := time.Now()
	s = &Session{
		ExternalID: externalID,
		State:      StatePaused,
		PausedAt:   &now,
		PausedBy:   byActor,
	}
	g.sessions[externalID] = s
	snapshot := *s
	g.mu.Unlock()

	g.logger.Info("session paused", "external_id", externalID, "by", byActor)
	return g.persist(ctx, &snapshot)
}

// Resume re-enables automatic replies. Resuming an active or unknown
// session is a no-op.
func (g *Gate) Resume(ctx context.Context, externalID string) error {
	g.mu.Lock()
	s, ok := g.sessions[externalID]
	if !ok || s.State == StateActive {
		g.mu.Unlock()
		return nil
	}
	s.State = StateActive
	s.PausedAt = nil
	s.PausedBy = ""
	snapshot := *s
	g.mu.Unlock()

	g.logger.Info("session resumed", "external_id", externalID)
	return g.persist(ctx, &snapshot)
}

// Snapshot returns a copy of the tracked session state, if any.
func (g *Gate) Snapshot(externalID string) (Session, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.sessions[externalID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// persist writes the session through to the store, if configured.
func (g *Gate) persist(ctx context.Context, s *Session) error {
	if g.store == nil {
		return nil
	}
	if err := g.store.UpsertSession(ctx, s); err != nil {
		return fmt.Errorf("persisting session %s: %w", s.ExternalID, err)
	}
	return nil
}
