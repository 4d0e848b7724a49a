// ABOUTME: Capability interface and registry for specialized responders
// ABOUTME: Each capability turns a classified message into a reply text

package capability

import (
	"context"
	"errors"

	"github.com/orbita-hq/leadgate/internal/completion"
	"github.com/orbita-hq/leadgate/internal/store"
)

// ErrUnknownCapability is returned when the registry has no entry for
// a requested name.
var ErrUnknownCapability = errors.New("unknown capability")

// Request carries everything a capability needs to answer one message.
// Context is the accumulated extracted context for the conversation,
// merged across turns by the orchestrator.
type Request struct {
	ConversationID string
	Message        string
	History        []completion.Message
	Lead           *store.Lead
	Signals        map[string]string
	Context        map[string]string
}

// ConversationState lets a capability read and update the extracted
// context and its own scratch state for a conversation.
type ConversationState interface {
	Context(conversationID string) map[string]string
	SetContext(conversationID string, update map[string]string)
	AgentState(conversationID, capability string) map[string]string
	SetAgentState(conversationID, capability string, state map[string]string)
}

// Capability produces a reply for a routed message
type Capability interface {
	Name() string
	Respond(ctx context.Context, req *Request) (string, error)
}

// Registry holds the available capabilities by name
type Registry struct {
	capabilities map[string]Capability
}

// NewRegistry creates a registry from the given capabilities
func NewRegistry(caps ...Capability) *Registry {
	r := &Registry{capabilities: make(map[string]Capability, len(caps))}
	for _, c := range caps {
		r.capabilities[c.Name()] = c
	}
	return r
}

// Get returns the capability registered under name
func (r *Registry) Get(name string) (Capability, error) {
	c, ok := r.capabilities[name]
	if !ok {
		return nil, ErrUnknownCapability
	}
	return c, nil
}

// Names lists the registered capability names
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.capabilities))
	for name := range r.capabilities {
		names = append(names, name)
	}
	return names
}
