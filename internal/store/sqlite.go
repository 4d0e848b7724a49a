// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Lead/turn/quote/session persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/orbita-hq/leadgate/internal/session"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leads (
		id TEXT PRIMARY KEY,
		external_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT '',
		origin TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'nuevo',
		interest TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS turns (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		content_type TEXT NOT NULL DEFAULT 'text',
		capability TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_turns_conversation ON turns(conversation_id, created_at);

	CREATE TABLE IF NOT EXISTS quotes (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		lead_id TEXT NOT NULL DEFAULT '',
		service_key TEXT NOT NULL,
		complexity TEXT NOT NULL,
		final_price INTEGER NOT NULL,
		currency TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_quotes_conversation ON quotes(conversation_id);

	CREATE TABLE IF NOT EXISTS sessions (
		external_id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		paused_at TIMESTAMP,
		paused_by TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP NOT NULL
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// GetOrCreateLead returns the lead for externalID, creating a new one
// on first contact. The create is race-safe: a concurrent insert is
// resolved by re-reading.
func (s *SQLiteStore) GetOrCreateLead(ctx context.Context, externalID, name, username, origin string) (*Lead, error) {
	lead, err := s.GetLeadByExternalID(ctx, externalID)
	if err == nil {
		return lead, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	now := time.Now()
	lead = &Lead{
		ID:         uuid.New().String(),
		ExternalID: externalID,
		Name:       name,
		Username:   username,
		Origin:     origin,
		Status:     LeadStatusNew,
		Interest:   "inicial",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (id, external_id, name, username, origin, status, interest, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(external_id) DO NOTHING`,
		lead.ID, lead.ExternalID, lead.Name, lead.Username, lead.Origin, lead.Status, lead.Interest, lead.CreatedAt, lead.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting lead: %w", err)
	}

	// Re-read so a concurrent creator's row wins consistently.
	lead, err = s.GetLeadByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("re-reading lead after insert: %w", err)
	}
	s.logger.Debug("lead resolved", "lead_id", lead.ID, "external_id", externalID)
	return lead, nil
}

// GetLeadByExternalID returns the lead for the channel identity.
func (s *SQLiteStore) GetLeadByExternalID(ctx context.Context, externalID string) (*Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, external_id, name, username, origin, status, interest, created_at, updated_at
		 FROM leads WHERE external_id = ?`, externalID)

	var lead Lead
	err := row.Scan(&lead.ID, &lead.ExternalID, &lead.Name, &lead.Username, &lead.Origin,
		&lead.Status, &lead.Interest, &lead.CreatedAt, &lead.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying lead: %w", err)
	}
	return &lead, nil
}

// UpdateLeadStatus sets status and interest for a lead. Empty values
// leave the existing column untouched.
func (s *SQLiteStore) UpdateLeadStatus(ctx context.Context, leadID, status, interest string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads
		 SET status = CASE WHEN ? = '' THEN status ELSE ? END,
		     interest = CASE WHEN ? = '' THEN interest ELSE ? END,
		     updated_at = ?
		 WHERE id = ?`,
		status, status, interest, interest, time.Now(), leadID)
	if err != nil {
		return fmt.Errorf("updating lead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveTurn appends one conversation turn. IDs and timestamps are
// filled in when missing.
func (s *SQLiteStore) SaveTurn(ctx context.Context, turn *TurnRecord) error {
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (id, conversation_id, role, content, content_type, capability, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.ConversationID, turn.Role, turn.Content, turn.ContentType, turn.Capability, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}
	return nil
}

// ListTurns returns up to limit of the most recent turns for the
// conversation, oldest first. limit <= 0 returns all turns.
func (s *SQLiteStore) ListTurns(ctx context.Context, conversationID string, limit int) ([]*TurnRecord, error) {
	query := `SELECT id, conversation_id, role, content, content_type, capability, created_at
	          FROM turns WHERE conversation_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{conversationID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []*TurnRecord
	for rows.Next() {
		var t TurnRecord
		if err := rows.Scan(&t.ID, &t.ConversationID, &t.Role, &t.Content, &t.ContentType, &t.Capability, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}

	// Query is newest-first for the LIMIT; callers want arrival order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// SaveQuote records an estimate shown to the user.
func (s *SQLiteStore) SaveQuote(ctx context.Context, quote *Quote) error {
	if quote.ID == "" {
		quote.ID = uuid.New().String()
	}
	if quote.CreatedAt.IsZero() {
		quote.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quotes (id, conversation_id, lead_id, service_key, complexity, final_price, currency, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		quote.ID, quote.ConversationID, quote.LeadID, quote.ServiceKey, quote.Complexity, quote.FinalPrice, quote.Currency, quote.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting quote: %w", err)
	}
	return nil
}

// ListQuotes returns all quotes for a conversation, oldest first.
func (s *SQLiteStore) ListQuotes(ctx context.Context, conversationID string) ([]*Quote, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, lead_id, service_key, complexity, final_price, currency, created_at
		 FROM quotes WHERE conversation_id = ? ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying quotes: %w", err)
	}
	defer rows.Close()

	var quotes []*Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.ID, &q.ConversationID, &q.LeadID, &q.ServiceKey, &q.Complexity, &q.FinalPrice, &q.Currency, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning quote: %w", err)
		}
		quotes = append(quotes, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating quotes: %w", err)
	}
	return quotes, nil
}

// UpsertSession writes session state through from the gate.
func (s *SQLiteStore) UpsertSession(ctx context.Context, sess *session.Session) error {
	var pausedAt *time.Time
	if sess.PausedAt != nil {
		t := *sess.PausedAt
		pausedAt = &t
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (external_id, state, paused_at, paused_by, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(external_id) DO UPDATE SET
		   state = excluded.state,
		   paused_at = excluded.paused_at,
		   paused_by = excluded.paused_by,
		   updated_at = excluded.updated_at`,
		sess.ExternalID, sess.State, pausedAt, sess.PausedBy, time.Now())
	if err != nil {
		return fmt.Errorf("upserting session: %w", err)
	}
	return nil
}

// ListPausedSessions returns every persisted session currently paused.
func (s *SQLiteStore) ListPausedSessions(ctx context.Context) ([]*session.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT external_id, state, paused_at, paused_by FROM sessions WHERE state = ?`,
		session.StatePaused)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*session.Session
	for rows.Next() {
		var sess session.Session
		var pausedAt sql.NullTime
		if err := rows.Scan(&sess.ExternalID, &sess.State, &pausedAt, &sess.PausedBy); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		if pausedAt.Valid {
			t := pausedAt.Time
			sess.PausedAt = &t
		}
		sessions = append(sessions, &sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

// GetStats returns aggregate counters for the analytics capability.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM leads", &stats.Leads},
		{"SELECT COUNT(DISTINCT conversation_id) FROM turns", &stats.Conversations},
		{"SELECT COUNT(*) FROM turns", &stats.Turns},
		{"SELECT COUNT(*) FROM quotes", &stats.Quotes},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.sql).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("counting: %w", err)
		}
	}
	return stats, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
