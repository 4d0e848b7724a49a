// ABOUTME: Intent classification: routes incoming messages to a capability
// ABOUTME: LLM-backed JSON classification with a keyword-pattern fallback

package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/orbita-hq/leadgate/internal/completion"
)

// Capability names the router can select
const (
	CapabilityCaptador       = "captador"
	CapabilityConversacional = "conversacional"
	CapabilityIdentidad      = "identidad"
	CapabilityAnalitico      = "analitico"
)

// knownCapabilities guards against the classifier inventing names
var knownCapabilities = map[string]bool{
	CapabilityCaptador:       true,
	CapabilityConversacional: true,
	CapabilityIdentidad:      true,
	CapabilityAnalitico:      true,
}

// routingPatterns drive the keyword fallback when the classifier is
// unavailable or returns malformed output.
var routingPatterns = map[string][]string{
	CapabilityCaptador:       {"contacto", "interesado", "cotización", "precio", "servicio"},
	CapabilityConversacional: {"hola", "ayuda", "información", "consulta", "pregunta"},
	CapabilityIdentidad:      {"empresa", "quienes", "nosotros", "valores", "misión"},
	CapabilityAnalitico:      {"reporte", "métricas", "análisis", "estadísticas", "dashboard"},
}

// patternOrder fixes the tie-break order for fallback scoring
var patternOrder = []string{
	CapabilityCaptador,
	CapabilityConversacional,
	CapabilityIdentidad,
	CapabilityAnalitico,
}

// Decision is the outcome of classifying one message
type Decision struct {
	Capability string
	Confidence float64
	Reasoning  string
	Signals    map[string]string
	Fallback   bool
}

// Completer is the slice of the completion client the router needs
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

// Router classifies messages into capabilities
type Router struct {
	completer Completer
	logger    *slog.Logger
}

// NewRouter creates a router. completer may be nil, in which case
// every message goes through the keyword fallback.
func NewRouter(completer Completer, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		completer: completer,
		logger:    logger.With("component", "intent"),
	}
}

// classification is the JSON shape the classifier must produce
type classification struct {
	SelectedCapability string            `json:"selected_capability"`
	Confidence         float64           `json:"confidence"`
	Reasoning          string            `json:"reasoning"`
	ExtractedSignals   map[string]string `json:"extracted_signals"`
}

const classifyPromptFormat = `Analiza el siguiente mensaje del usuario y determina qué capacidad especializada debe manejarlo:

MENSAJE: %q

CAPACIDADES DISPONIBLES:
- captador: Captura de leads, calificación, interés en servicios, solicitudes de cotización
- conversacional: Conversaciones generales, preguntas informativas, soporte básico
- identidad: Preguntas sobre la empresa, valores, servicios, equipo, historia
- analitico: Solicitudes de reportes, métricas, análisis de datos, insights

CONTEXTO: %s

Responde SOLO en JSON con:
{
    "selected_capability": "nombre",
    "confidence": 0.0,
    "reasoning": "explicación breve",
    "extracted_signals": {"clave": "valor"}
}`

// Classify decides which capability should handle the message.
// contextSummary carries the recent conversation as free text and may
// be empty on first contact. Classify never returns an error: any
// classifier failure falls back to keyword pattern matching.
func (r *Router) Classify(ctx context.Context, message, contextSummary string) Decision {
	if r.completer != nil {
		decision, ok := r.classifyWithModel(ctx, message, contextSummary)
		if ok {
			return decision
		}
	}
	return r.classifyWithPatterns(message)
}

func (r *Router) classifyWithModel(ctx context.Context, message, contextSummary string) (Decision, bool) {
	if contextSummary == "" {
		contextSummary = "Sin contexto previo"
	}
	raw, err := r.completer.Complete(ctx, completion.Request{
		Capability: "orchestrator",
		Messages: []completion.Message{
			{Role: "user", Content: fmt.Sprintf(classifyPromptFormat, message, contextSummary)},
		},
	})
	if err != nil {
		r.logger.Warn("classifier unavailable, using pattern fallback", "error", err)
		return Decision{}, false
	}

	var parsed classification
	dec := json.NewDecoder(strings.NewReader(extractJSON(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&parsed); err != nil || parsed.SelectedCapability == "" {
		r.logger.Warn("classifier output malformed, using pattern fallback", "error", err)
		return Decision{}, false
	}

	decision := Decision{
		Capability: parsed.SelectedCapability,
		Confidence: parsed.Confidence,
		Reasoning:  parsed.Reasoning,
		Signals:    parsed.ExtractedSignals,
	}

	// An invented capability name routes to the default conversational
	// handler at reduced confidence.
	if !knownCapabilities[decision.Capability] {
		decision.Capability = CapabilityConversacional
		decision.Confidence = 0.5
	}
	if decision.Confidence < 0 {
		decision.Confidence = 0
	}
	if decision.Confidence > 1 {
		decision.Confidence = 1
	}

	r.logger.Debug("message classified",
		"capability", decision.Capability,
		"confidence", decision.Confidence)
	return decision, true
}

// classifyWithPatterns scores each capability by the fraction of its
// keywords present in the message, doubled and capped at 1.0. A weak
// winner routes to conversacional at moderate confidence.
func (r *Router) classifyWithPatterns(message string) Decision {
	lower := strings.ToLower(message)

	best := CapabilityCaptador
	bestScore := -1.0
	for _, capability := range patternOrder {
		keywords := routingPatterns[capability]
		matched := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				matched++
			}
		}
		score := float64(matched) / float64(len(keywords))
		if score > bestScore {
			best = capability
			bestScore = score
		}
	}

	confidence := bestScore * 2
	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0.3 {
		best = CapabilityConversacional
		confidence = 0.6
	}

	return Decision{
		Capability: best,
		Confidence: confidence,
		Reasoning:  fmt.Sprintf("análisis de patrones: mejor coincidencia con %s", best),
		Fallback:   true,
	}
}

// extractJSON trims everything outside the outermost JSON object, so
// models that wrap their answer in prose or code fences still parse.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
