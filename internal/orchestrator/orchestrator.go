// ABOUTME: Conversation orchestrator: the per-message processing pipeline
// ABOUTME: Gate check, routing, dispatch, estimation, persistence, reply

package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/orbita-hq/leadgate/internal/capability"
	"github.com/orbita-hq/leadgate/internal/completion"
	"github.com/orbita-hq/leadgate/internal/estimate"
	"github.com/orbita-hq/leadgate/internal/intent"
	"github.com/orbita-hq/leadgate/internal/memory"
	"github.com/orbita-hq/leadgate/internal/session"
	"github.com/orbita-hq/leadgate/internal/store"
)

// Content types the pipeline accepts
const (
	ContentTypeText  = "text"
	ContentTypeVoice = "voice"
)

// Action hints returned alongside a reply. The channel adapter decides
// how to render them (inline buttons on Telegram, links elsewhere).
const (
	ActionOfferPlans      = "ofrecer_planes"
	ActionScheduleMeeting = "agendar_reunion"
)

// Fixed user-facing texts for the degraded paths
const (
	invalidInputReply = "No pude procesar tu mensaje. ¿Podrías escribirlo de nuevo?"
	fallbackReply     = "Gracias por tu mensaje. En este momento tengo problemas técnicos, pero he registrado tu consulta. Te contactaré pronto."
)

// confidenceGate routes low-confidence decisions to the default
// conversational capability.
const confidenceGate = 0.7

var priceWords = []string{"precio", "cotización", "costo", "cuanto"}
var meetingWords = []string{"reunión", "reunion", "llamada", "agenda"}

// Inbound is one message arriving from a channel adapter
type Inbound struct {
	ExternalID     string
	ConversationID string
	Message        string
	ContentType    string
	SenderName     string
	SenderUsername string
	Origin         string
}

// Result is the assembled outcome of processing one inbound message.
// Silent is set when the session is paused: the inbound turn was
// recorded but no reply must be sent.
type Result struct {
	Reply      string
	Capability string
	Confidence float64
	Hints      []string
	Estimate   *estimate.Estimate
	Silent     bool
}

// Classifier decides which capability handles a message. The summary
// carries the recent conversation as free text, empty on first contact.
type Classifier interface {
	Classify(ctx context.Context, message, contextSummary string) intent.Decision
}

// Recorder is the slice of the persistent store the orchestrator uses.
// All calls through it are best-effort: failures are logged, never
// allowed to block the reply.
type Recorder interface {
	GetOrCreateLead(ctx context.Context, externalID, name, username, origin string) (*store.Lead, error)
	UpdateLeadStatus(ctx context.Context, leadID, status, interest string) error
	SaveTurn(ctx context.Context, turn *store.TurnRecord) error
	SaveQuote(ctx context.Context, quote *store.Quote) error
}

// Orchestrator coordinates the full per-message pipeline
type Orchestrator struct {
	gate         *session.Gate
	memory       *memory.Memory
	classifier   Classifier
	registry     *capability.Registry
	engine       *estimate.Engine
	recorder     Recorder
	contextTurns int
	logger       *slog.Logger
}

// Options configures an Orchestrator
type Options struct {
	Gate         *session.Gate
	Memory       *memory.Memory
	Classifier   Classifier
	Registry     *capability.Registry
	Engine       *estimate.Engine
	Recorder     Recorder
	ContextTurns int
	Logger       *slog.Logger
}

// New creates an orchestrator. Recorder may be nil, disabling durable
// persistence; conversation memory still works.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	contextTurns := opts.ContextTurns
	if contextTurns <= 0 {
		contextTurns = 10
	}
	return &Orchestrator{
		gate:         opts.Gate,
		memory:       opts.Memory,
		classifier:   opts.Classifier,
		registry:     opts.Registry,
		engine:       opts.Engine,
		recorder:     opts.Recorder,
		contextTurns: contextTurns,
		logger:       logger.With("component", "orchestrator"),
	}
}

// Process runs one inbound message through the pipeline and returns
// the assembled reply. It never returns an error for classification or
// capability failures; those degrade to a fallback reply. The channel
// always gets some reply, except for paused sessions.
func (o *Orchestrator) Process(ctx context.Context, in Inbound) (*Result, error) {
	if !validInput(in) {
		// Invalid input short-circuits with a retry prompt and writes
		// nothing: an empty turn in memory helps nobody.
		return &Result{Reply: invalidInputReply}, nil
	}

	if o.gate != nil && o.gate.IsPaused(in.ExternalID) {
		o.recordTurn(ctx, in.ConversationID, memory.RoleUser, in.Message, in.ContentType, "")
		o.logger.Info("session paused, inbound stored without reply",
			"external_id", in.ExternalID)
		return &Result{Silent: true}, nil
	}

	lead := o.resolveLead(ctx, in)
	history := o.loadContext(in.ConversationID)
	decision := o.classifier.Classify(ctx, in.Message, summarizeHistory(history))

	// Signals extracted during classification accumulate in conversation
	// context, so later turns see what earlier turns revealed.
	var convContext map[string]string
	if o.memory != nil {
		if len(decision.Signals) > 0 {
			o.memory.SetContext(in.ConversationID, decision.Signals)
		}
		convContext = o.memory.Context(in.ConversationID)
	}

	// Low confidence always lands on the default conversational
	// capability, never a specialized one.
	capName := decision.Capability
	if decision.Confidence < confidenceGate {
		capName = intent.CapabilityConversacional
	}

	reply, usedCapability := o.dispatch(ctx, capName, &capability.Request{
		ConversationID: in.ConversationID,
		Message:        in.Message,
		History:        history,
		Lead:           lead,
		Signals:        decision.Signals,
		Context:        convContext,
	}, in.ConversationID)

	result := &Result{
		Reply:      reply,
		Capability: usedCapability,
		Confidence: decision.Confidence,
	}

	o.attachEstimate(ctx, in, lead, result)
	result.Hints = actionHints(in.Message)

	o.recordTurn(ctx, in.ConversationID, memory.RoleUser, in.Message, in.ContentType, "")
	o.recordTurn(ctx, in.ConversationID, memory.RoleAssistant, result.Reply, ContentTypeText, result.Capability)

	return result, nil
}

func validInput(in Inbound) bool {
	if strings.TrimSpace(in.Message) == "" {
		return false
	}
	switch in.ContentType {
	case ContentTypeText, ContentTypeVoice:
		return true
	}
	return false
}

func (o *Orchestrator) resolveLead(ctx context.Context, in Inbound) *store.Lead {
	if o.recorder == nil {
		return nil
	}
	lead, err := o.recorder.GetOrCreateLead(ctx, in.ExternalID, in.SenderName, in.SenderUsername, in.Origin)
	if err != nil {
		o.logger.Warn("lead resolution failed", "external_id", in.ExternalID, "error", err)
		return nil
	}
	return lead
}

func (o *Orchestrator) loadContext(conversationID string) []completion.Message {
	if o.memory == nil {
		return nil
	}
	turns := o.memory.RecentTurns(conversationID, o.contextTurns)
	history := make([]completion.Message, 0, len(turns))
	for _, t := range turns {
		history = append(history, completion.Message{Role: t.Role, Content: t.Content})
	}
	return history
}

// summarizeHistory flattens recent turns into the free-text summary
// the classifier prompt expects.
func summarizeHistory(history []completion.Message) string {
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, 0, len(history))
	for _, m := range history {
		lines = append(lines, m.Role+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// dispatch invokes the selected capability; any failure degrades to
// the fixed fallback reply, which is a successful outcome for the
// channel.
func (o *Orchestrator) dispatch(ctx context.Context, capName string, req *capability.Request, conversationID string) (string, string) {
	handler, err := o.registry.Get(capName)
	if err != nil {
		o.logger.Warn("capability not registered, using fallback",
			"conversation_id", conversationID, "capability", capName)
		return fallbackReply, "fallback"
	}

	reply, err := handler.Respond(ctx, req)
	if err != nil {
		o.logger.Error("capability failed, using fallback",
			"conversation_id", conversationID, "capability", capName, "error", err)
		return fallbackReply, "fallback"
	}
	return reply, capName
}

// attachEstimate runs service detection on the raw message regardless
// of which capability replied, appending a formatted quote when a
// service is confidently detected.
func (o *Orchestrator) attachEstimate(ctx context.Context, in Inbound, lead *store.Lead, result *Result) {
	if o.engine == nil {
		return
	}

	serviceKey, confidence := o.engine.DetectService(in.Message)
	if serviceKey == "" {
		return
	}

	level := o.engine.DetectComplexity(in.Message)
	est, ok := o.engine.Estimate(serviceKey, in.Message, level)
	if !ok {
		return
	}

	result.Estimate = est
	result.Reply = result.Reply + "\n\n" + o.engine.Format(est)

	o.logger.Info("estimate attached",
		"conversation_id", in.ConversationID,
		"service", serviceKey,
		"confidence", confidence,
		"final_price", est.FinalPrice)

	if o.recorder == nil {
		return
	}
	leadID := ""
	if lead != nil {
		leadID = lead.ID
	}
	quote := &store.Quote{
		ConversationID: in.ConversationID,
		LeadID:         leadID,
		ServiceKey:     est.ServiceKey,
		Complexity:     est.ComplexityLevel,
		FinalPrice:     est.FinalPrice,
		Currency:       est.Currency,
		CreatedAt:      time.Now(),
	}
	if err := o.recorder.SaveQuote(ctx, quote); err != nil {
		o.logger.Warn("quote persistence failed",
			"conversation_id", in.ConversationID, "error", err)
	}
	if lead != nil {
		if err := o.recorder.UpdateLeadStatus(ctx, lead.ID, store.LeadStatusQuoted, est.ServiceKey); err != nil {
			o.logger.Warn("lead status update failed", "lead_id", lead.ID, "error", err)
		}
	}
}

// recordTurn writes one turn to conversation memory and, best-effort,
// to the durable store. Reply delivery outranks memory durability: a
// failed write is logged and accepted as a gap.
func (o *Orchestrator) recordTurn(ctx context.Context, conversationID, role, content, contentType, capName string) {
	if o.memory != nil {
		o.memory.Append(conversationID, memory.Turn{
			Role:        role,
			Content:     content,
			ContentType: contentType,
			Capability:  capName,
			Timestamp:   time.Now(),
		})
	}
	if o.recorder == nil {
		return
	}
	err := o.recorder.SaveTurn(ctx, &store.TurnRecord{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		ContentType:    contentType,
		Capability:     capName,
	})
	if err != nil {
		o.logger.Warn("turn persistence failed",
			"conversation_id", conversationID, "role", role, "error", err)
	}
}

// actionHints inspects the raw message for follow-up intent. Price
// questions take precedence over meeting requests.
func actionHints(message string) []string {
	lower := strings.ToLower(message)
	for _, w := range priceWords {
		if strings.Contains(lower, w) {
			return []string{ActionOfferPlans, ActionScheduleMeeting}
		}
	}
	for _, w := range meetingWords {
		if strings.Contains(lower, w) {
			return []string{ActionScheduleMeeting}
		}
	}
	return nil
}
