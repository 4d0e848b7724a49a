// ABOUTME: In-process per-conversation memory: turn history, context, agent state
// ABOUTME: Conversation-keyed locking with a background retention sweep

package memory

import (
	"log/slog"
	"sync"
	"time"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content types carried on a turn.
const (
	ContentText  = "text"
	ContentVoice = "voice"
)

// Turn is one message exchange unit within a conversation.
// Capability is set only on assistant turns and names the capability
// that produced the reply.
type Turn struct {
	Role        string
	Content     string
	ContentType string
	Capability  string
	Timestamp   time.Time
}

// conversation holds all mutable state for one conversation ID. Its
// mutex serializes appends so concurrent writes to the same
// conversation never interleave, while writes to different
// conversations proceed independently.
type conversation struct {
	mu              sync.Mutex
	turns           []Turn
	context         map[string]string
	agentState      map[string]map[string]string
	lastInteraction time.Time
}

// Memory is the in-process conversation store. All methods are safe
// for concurrent use.
type Memory struct {
	mu            sync.RWMutex
	conversations map[string]*conversation

	maxTurns      int
	retention     time.Duration
	sweepInterval time.Duration

	logger *slog.Logger
	done   chan struct{}
	closed bool
}

// Options configures a Memory. Zero values fall back to the defaults:
// 100 turns per conversation, 24h retention, hourly sweeps.
type Options struct {
	MaxTurns      int
	Retention     time.Duration
	SweepInterval time.Duration
	Logger        *slog.Logger
}

// New creates a conversation memory and starts its background
// retention sweep. Call Close to stop the sweeper.
func New(opts Options) *Memory {
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = 100
	}
	if opts.Retention <= 0 {
		opts.Retention = 24 * time.Hour
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Hour
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Memory{
		conversations: make(map[string]*conversation),
		maxTurns:      opts.MaxTurns,
		retention:     opts.Retention,
		sweepInterval: opts.SweepInterval,
		logger:        logger.With("component", "memory"),
		done:          make(chan struct{}),
	}
	go m.sweep()
	return m
}

// Append records a turn at the end of the conversation, stamping it
// with the current time if unset. When the conversation exceeds the
// turn cap, the oldest turns are dropped first; order is never changed.
func (m *Memory) Append(conversationID string, turn Turn) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}

	c := m.get(conversationID)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.turns = append(c.turns, turn)
	if len(c.turns) > m.maxTurns {
		overflow := len(c.turns) - m.maxTurns
		c.turns = append([]Turn(nil), c.turns[overflow:]...)
	}
	c.lastInteraction = time.Now()
}

// RecentTurns returns at most limit of the most recent turns, oldest
// first. The returned slice is a snapshot; callers may keep it across
// sweeps. limit <= 0 returns all retained turns.
func (m *Memory) RecentTurns(conversationID string, limit int) []Turn {
	m.mu.RLock()
	c, ok := m.conversations[conversationID]
	m.mu.RUnlock()
	if !ok {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	turns := c.turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

// Context returns a copy of the extracted-context map for the
// conversation.
func (m *Memory) Context(conversationID string) map[string]string {
	m.mu.RLock()
	c, ok := m.conversations[conversationID]
	m.mu.RUnlock()
	if !ok {
		return map[string]string{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]string, len(c.context))
	for k, v := range c.context {
		out[k] = v
	}
	return out
}

// SetContext merges the given key/value pairs into the conversation's
// extracted context.
func (m *Memory) SetContext(conversationID string, update map[string]string) {
	c := m.get(conversationID)
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range update {
		c.context[k] = v
	}
}

// AgentState returns a copy of the scratch state a capability has
// stored for this conversation.
func (m *Memory) AgentState(conversationID, capability string) map[string]string {
	m.mu.RLock()
	c, ok := m.conversations[conversationID]
	m.mu.RUnlock()
	if !ok {
		return map[string]string{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	state := c.agentState[capability]
	out := make(map[string]string, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}

// SetAgentState replaces the scratch state a capability keeps for this
// conversation.
func (m *Memory) SetAgentState(conversationID, capability string, state map[string]string) {
	c := m.get(conversationID)
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := make(map[string]string, len(state))
	for k, v := range state {
		copied[k] = v
	}
	c.agentState[capability] = copied
}

// EvictOlderThan removes conversations whose last interaction is older
// than maxAge and returns how many were removed.
func (m *Memory) EvictOlderThan(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, c := range m.conversations {
		c.mu.Lock()
		stale := !c.lastInteraction.IsZero() && c.lastInteraction.Before(cutoff)
		c.mu.Unlock()
		if stale {
			delete(m.conversations, id)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of conversations currently retained.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conversations)
}

// Close stops the background sweeper. Safe to call multiple times.
func (m *Memory) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		close(m.done)
		m.closed = true
	}
}

// get returns the conversation record for id, creating it if needed.
func (m *Memory) get(conversationID string) *conversation {
	m.mu.RLock()
	c, ok := m.conversations[conversationID]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.conversations[conversationID]; ok {
		return c
	}
	c = &conversation{
		context:    make(map[string]string),
		agentState: make(map[string]map[string]string),
	}
	m.conversations[conversationID] = c
	return c
}

// sweep runs in a background goroutine, evicting conversations past
// the retention window on each tick.
func (m *Memory) sweep() {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.EvictOlderThan(m.retention); n > 0 {
				m.logger.Debug("evicted stale conversations", "count", n)
			}
		case <-m.done:
			return
		}
	}
}
