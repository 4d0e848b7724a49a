// ABOUTME: Store interface and data types for leadgate persistence
// ABOUTME: Defines Lead, TurnRecord, Quote structs and the Store interface

package store

import (
	"context"
	"errors"
	"time"

	"github.com/orbita-hq/leadgate/internal/session"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Lead statuses
const (
	LeadStatusNew    = "nuevo"
	LeadStatusQuoted = "cotizado"
)

// Lead represents one prospect identified by their channel identity
type Lead struct {
	ID         string
	ExternalID string
	Name       string
	Username   string
	Origin     string
	Status     string
	Interest   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TurnRecord is one persisted conversation turn. Capability is set
// only on assistant turns.
type TurnRecord struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	ContentType    string
	Capability     string
	CreatedAt      time.Time
}

// Quote records an estimate shown to a user, frozen at the moment it
// was quoted.
type Quote struct {
	ID             string
	ConversationID string
	LeadID         string
	ServiceKey     string
	Complexity     string
	FinalPrice     int
	Currency       string
	CreatedAt      time.Time
}

// Stats are the aggregate counters served to the analytics capability
type Stats struct {
	Leads         int
	Conversations int
	Turns         int
	Quotes        int
}

// Store defines the interface for leadgate persistence. Session
// methods satisfy session.Store so the gate can write through.
type Store interface {
	// Leads
	GetOrCreateLead(ctx context.Context, externalID, name, username, origin string) (*Lead, error)
	GetLeadByExternalID(ctx context.Context, externalID string) (*Lead, error)
	UpdateLeadStatus(ctx context.Context, leadID, status, interest string) error

	// Conversation turns (append-only)
	SaveTurn(ctx context.Context, turn *TurnRecord) error
	ListTurns(ctx context.Context, conversationID string, limit int) ([]*TurnRecord, error)

	// Quotes
	SaveQuote(ctx context.Context, quote *Quote) error
	ListQuotes(ctx context.Context, conversationID string) ([]*Quote, error)

	// Sessions (write-through from the session gate)
	UpsertSession(ctx context.Context, s *session.Session) error
	ListPausedSessions(ctx context.Context) ([]*session.Session, error)

	// Aggregates
	GetStats(ctx context.Context) (*Stats, error)

	// Close releases any resources held by the store
	Close() error
}
