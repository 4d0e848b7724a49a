// ABOUTME: Identity capability: answers questions about the company itself
// ABOUTME: Builds its system prompt from the configured company profile

package capability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orbita-hq/leadgate/internal/completion"
	"github.com/orbita-hq/leadgate/internal/config"
	"github.com/orbita-hq/leadgate/internal/intent"
)

// Identidad answers questions about the company: who they are, what
// they value, what they do.
type Identidad struct {
	completer Completer
	company   config.CompanyConfig
	logger    *slog.Logger
}

// NewIdentidad creates the company-identity capability
func NewIdentidad(completer Completer, company config.CompanyConfig, logger *slog.Logger) *Identidad {
	if logger == nil {
		logger = slog.Default()
	}
	return &Identidad{
		completer: completer,
		company:   company,
		logger:    logger.With("component", "capability", "capability", intent.CapabilityIdentidad),
	}
}

func (i *Identidad) Name() string { return intent.CapabilityIdentidad }

func (i *Identidad) systemPrompt() string {
	description := i.company.Description
	if description == "" {
		description = "una empresa de desarrollo de software y servicios digitales"
	}
	return fmt.Sprintf(`Eres la voz institucional de %s: %s.
Respondes en español preguntas sobre la empresa, su equipo, sus valores y su forma de trabajar.
Responde solo con información de este perfil; si no sabes algo, dilo con honestidad y ofrece poner al usuario en contacto con el equipo.`,
		i.company.Name, description)
}

// Respond answers a company question grounded in the configured profile.
func (i *Identidad) Respond(ctx context.Context, req *Request) (string, error) {
	messages := make([]completion.Message, 0, len(req.History)+2)
	messages = append(messages, completion.Message{Role: "system", Content: i.systemPrompt()})
	messages = append(messages, req.History...)
	messages = append(messages, completion.Message{Role: "user", Content: req.Message})

	reply, err := i.completer.Complete(ctx, completion.Request{
		Capability: i.Name(),
		Messages:   messages,
	})
	if err != nil {
		return "", fmt.Errorf("generating identity reply: %w", err)
	}
	return reply, nil
}
