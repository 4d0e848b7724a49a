// ABOUTME: Conversational capability: the default responder for general chat
// ABOUTME: Sends history plus the incoming message to the completion service

package capability

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/orbita-hq/leadgate/internal/completion"
	"github.com/orbita-hq/leadgate/internal/config"
	"github.com/orbita-hq/leadgate/internal/intent"
)

// Completer is the slice of the completion client capabilities use
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

// Conversacional handles general conversation, questions and support.
// It is the default route when no specialized capability applies.
type Conversacional struct {
	completer Completer
	company   config.CompanyConfig
	logger    *slog.Logger
}

// NewConversacional creates the default conversational capability
func NewConversacional(completer Completer, company config.CompanyConfig, logger *slog.Logger) *Conversacional {
	if logger == nil {
		logger = slog.Default()
	}
	return &Conversacional{
		completer: completer,
		company:   company,
		logger:    logger.With("component", "capability", "capability", intent.CapabilityConversacional),
	}
}

func (c *Conversacional) Name() string { return intent.CapabilityConversacional }

func (c *Conversacional) systemPrompt() string {
	return fmt.Sprintf(`Eres el asistente conversacional de %s. Respondes en español, con un tono cercano y profesional.
Ayudas con preguntas generales, das información sobre los servicios y guías al usuario.
Mantén las respuestas breves y útiles. Si el usuario muestra interés en contratar un servicio, invítalo a contarte más detalles.`,
		c.company.Name)
}

// Respond generates a conversational reply using the chat history.
func (c *Conversacional) Respond(ctx context.Context, req *Request) (string, error) {
	messages := make([]completion.Message, 0, len(req.History)+2)
	messages = append(messages, completion.Message{Role: "system", Content: c.systemPrompt()})
	messages = append(messages, req.History...)
	messages = append(messages, completion.Message{Role: "user", Content: req.Message})

	reply, err := c.completer.Complete(ctx, completion.Request{
		Capability: c.Name(),
		Messages:   messages,
	})
	if err != nil {
		return "", fmt.Errorf("generating conversational reply: %w", err)
	}
	return reply, nil
}
