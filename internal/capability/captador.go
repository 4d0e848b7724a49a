// ABOUTME: Lead-capture capability: qualifies prospects and extracts contact data
// ABOUTME: Updates lead status from classifier signals and regex-found contacts

package capability

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/orbita-hq/leadgate/internal/completion"
	"github.com/orbita-hq/leadgate/internal/config"
	"github.com/orbita-hq/leadgate/internal/intent"
)

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s\-]{6,14}\d`)
)

// LeadUpdater is the slice of the store the captador needs
type LeadUpdater interface {
	UpdateLeadStatus(ctx context.Context, leadID, status, interest string) error
}

// Captador qualifies leads: it keeps the conversation moving toward a
// concrete service interest and records contact details it finds.
type Captador struct {
	completer Completer
	leads     LeadUpdater
	state     ConversationState
	company   config.CompanyConfig
	logger    *slog.Logger
}

// NewCaptador creates the lead-capture capability. leads may be nil,
// disabling status updates; state may be nil, disabling context capture.
func NewCaptador(completer Completer, leads LeadUpdater, state ConversationState, company config.CompanyConfig, logger *slog.Logger) *Captador {
	if logger == nil {
		logger = slog.Default()
	}
	return &Captador{
		completer: completer,
		leads:     leads,
		state:     state,
		company:   company,
		logger:    logger.With("component", "capability", "capability", intent.CapabilityCaptador),
	}
}

func (c *Captador) Name() string { return intent.CapabilityCaptador }

func (c *Captador) systemPrompt(known map[string]string) string {
	prompt := fmt.Sprintf(`Eres el agente captador de leads de %s. Respondes en español.
Tu objetivo es calificar al prospecto: entender qué servicio le interesa, su presupuesto aproximado y cómo contactarlo.
Haz una pregunta a la vez, sin presionar. Si el usuario pide precio o cotización, pídele los detalles del proyecto para poder estimar.
Nunca inventes precios; las cotizaciones las genera el sistema.`,
		c.company.Name)

	var facts []string
	if v := known["servicio"]; v != "" {
		facts = append(facts, "servicio de interés: "+v)
	}
	if v := known["email"]; v != "" {
		facts = append(facts, "email: "+v)
	}
	if v := known["telefono"]; v != "" {
		facts = append(facts, "teléfono: "+v)
	}
	if len(facts) > 0 {
		prompt += "\nDatos ya conocidos del prospecto (no los vuelvas a pedir): " + strings.Join(facts, ", ") + "."
	}
	return prompt
}

// Respond generates a qualification reply and records any interest or
// contact data found in the exchange. Lead updates are best-effort:
// a failed update is logged, never surfaced as a reply failure.
func (c *Captador) Respond(ctx context.Context, req *Request) (string, error) {
	messages := make([]completion.Message, 0, len(req.History)+2)
	messages = append(messages, completion.Message{Role: "system", Content: c.systemPrompt(req.Context)})
	messages = append(messages, req.History...)
	messages = append(messages, completion.Message{Role: "user", Content: req.Message})

	reply, err := c.completer.Complete(ctx, completion.Request{
		Capability: c.Name(),
		Messages:   messages,
	})
	if err != nil {
		return "", fmt.Errorf("generating lead-capture reply: %w", err)
	}

	c.capture(ctx, req)
	return reply, nil
}

// capture records the interest and contact data found in the exchange:
// contacts merge into conversation context, interest lands both on the
// lead record and in this capability's scratch state.
func (c *Captador) capture(ctx context.Context, req *Request) {
	interest := req.Signals["servicio"]
	if interest == "" {
		interest = req.Signals["interes"]
	}
	contacts := ExtractContacts(req.Message)

	if c.state != nil {
		if len(contacts) > 0 {
			update := make(map[string]string, len(contacts))
			for _, contact := range contacts {
				switch contact.Kind {
				case "email":
					update["email"] = contact.Value
				case "phone":
					update["telefono"] = contact.Value
				}
			}
			c.state.SetContext(req.ConversationID, update)
		}
		if interest != "" {
			scratch := c.state.AgentState(req.ConversationID, c.Name())
			scratch["interes"] = interest
			c.state.SetAgentState(req.ConversationID, c.Name(), scratch)
		}
	}

	if c.leads == nil || req.Lead == nil {
		return
	}
	if interest == "" && len(contacts) == 0 {
		return
	}

	if err := c.leads.UpdateLeadStatus(ctx, req.Lead.ID, "", interest); err != nil {
		c.logger.Warn("lead update failed", "lead_id", req.Lead.ID, "error", err)
		return
	}
	if len(contacts) > 0 {
		c.logger.Info("contact data captured", "lead_id", req.Lead.ID, "contacts", len(contacts))
	}
}

// Contact is one piece of contact data extracted from a message
type Contact struct {
	Kind  string
	Value string
}

// ExtractContacts finds email addresses and phone numbers in free text
func ExtractContacts(message string) []Contact {
	var contacts []Contact
	for _, m := range emailPattern.FindAllString(message, -1) {
		contacts = append(contacts, Contact{Kind: "email", Value: m})
	}
	for _, m := range phonePattern.FindAllString(message, -1) {
		contacts = append(contacts, Contact{Kind: "phone", Value: m})
	}
	return contacts
}
