// ABOUTME: Keyword-based service detection and deterministic price estimation
// ABOUTME: Pure functions over the static catalog - no I/O, safe for concurrent use

package estimate

import (
	"fmt"
	"strings"
)

// Complexity levels accepted by Estimate. Unknown levels fall back to
// the standard multiplier.
const (
	LevelSimple   = "simple"
	LevelStandard = "standard"
	LevelComplex  = "complejo"
)

// DetectThreshold is the minimum confidence for DetectService to report
// a match.
const DetectThreshold = 0.5

// levelMultipliers maps a complexity level to its price multiplier.
var levelMultipliers = map[string]float64{
	LevelSimple:   0.7,
	LevelStandard: 1.0,
	LevelComplex:  1.5,
}

// Marker words scanned in the free-text details. High markers raise the
// estimate by 1.3x, low markers lower it by 0.8x. High wins when both
// appear.
var (
	highComplexityWords = []string{"múltiples", "integraciones", "apis", "complejas", "avanzado", "personalizado"}
	lowComplexityWords  = []string{"básico", "simple", "sencillo", "estándar"}

	// Complexity inference scans simple words before complex words,
	// so a message carrying both resolves to simple.
	simpleLevelWords  = []string{"simple", "básico", "sencillo", "barato", "económico"}
	complexLevelWords = []string{"complejo", "avanzado", "completo", "integraciones", "múltiples", "personalizado"}
)

// Estimate is the result of pricing one service request. FinalPrice is
// derived from the base price, the level multiplier, and the details
// adjustment; it is a pure function of those three inputs.
type Estimate struct {
	ServiceKey           string
	DisplayName          string
	Description          string
	BasePrice            int
	ComplexityLevel      string
	ComplexityMultiplier float64
	AdjustmentFactor     float64
	FinalPrice           int
	Currency             string
	Duration             string
	Includes             []string
}

// Engine detects services in free text and produces price estimates
// from the static catalog. Currency overrides the default USD label on
// formatted output.
type Engine struct {
	currency string
}

// NewEngine creates an estimation engine. currency may be empty, in
// which case USD is used.
func NewEngine(currency string) *Engine {
	if currency == "" {
		currency = "USD"
	}
	return &Engine{currency: currency}
}

// DetectService scans message for catalog keywords and returns the best
// matching service key with a confidence in [0,1]. Confidence starts at
// 0.5 for a single keyword hit and grows 0.25 per extra hit, capped at
// 1.0. Returns ("", 0) when nothing reaches the 0.5 threshold. Ties
// break by catalog declaration order.
func (e *Engine) DetectService(message string) (string, float64) {
	normalized := normalize(message)

	bestKey := ""
	bestConfidence := 0.0

	for _, svc := range catalog {
		matches := 0
		for _, kw := range svc.Keywords {
			if strings.Contains(normalized, normalize(kw)) {
				matches++
			}
		}
		if matches == 0 {
			continue
		}
		confidence := 0.5 + 0.25*float64(matches-1)
		if confidence > 1.0 {
			confidence = 1.0
		}
		// Strict > keeps the earliest catalog entry on ties.
		if confidence > bestConfidence {
			bestKey = svc.Key
			bestConfidence = confidence
		}
	}

	if bestConfidence < DetectThreshold {
		return "", 0
	}
	return bestKey, bestConfidence
}

// DetectComplexity infers a complexity level from the message text.
// Simple words are checked before complex words, so a message carrying
// both resolves to simple. Defaults to standard.
func (e *Engine) DetectComplexity(message string) string {
	normalized := normalize(message)
	for _, w := range simpleLevelWords {
		if strings.Contains(normalized, normalize(w)) {
			return LevelSimple
		}
	}
	for _, w := range complexLevelWords {
		if strings.Contains(normalized, normalize(w)) {
			return LevelComplex
		}
	}
	return LevelStandard
}

// Estimate prices a service. Returns (nil, false) only when serviceKey
// is not in the catalog. The details text is scanned for high/low
// complexity markers independently of level: both multipliers compose,
// so "simple" appearing as level and as a details word double-counts.
// That convention matches the upstream behavior and is pinned by tests.
func (e *Engine) Estimate(serviceKey, details, level string) (*Estimate, bool) {
	svc, ok := Lookup(serviceKey)
	if !ok {
		return nil, false
	}

	multiplier, ok := levelMultipliers[level]
	if !ok {
		level = LevelStandard
		multiplier = 1.0
	}

	adjustment := 1.0
	if details != "" {
		normalized := normalize(details)
		switch {
		case containsAny(normalized, highComplexityWords):
			adjustment = 1.3
		case containsAny(normalized, lowComplexityWords):
			adjustment = 0.8
		}
	}

	// Truncation, not rounding. Every catalog base price composed with
	// the multiplier and adjustment tables lands on an exact integer in
	// float64, so the two never differ here.
	final := int(float64(svc.BasePrice) * multiplier * adjustment)

	return &Estimate{
		ServiceKey:           svc.Key,
		DisplayName:          svc.DisplayName,
		Description:          svc.Description,
		BasePrice:            svc.BasePrice,
		ComplexityLevel:      level,
		ComplexityMultiplier: multiplier,
		AdjustmentFactor:     adjustment,
		FinalPrice:           final,
		Currency:             e.currency,
		Duration:             svc.Duration,
		Includes:             svc.Includes,
	}, true
}

// Format renders an estimate as a user-facing markdown message.
func (e *Engine) Format(est *Estimate) string {
	if est == nil {
		return "No pude detectar qué servicio necesitas. ¿Podrías describir más?"
	}

	var b strings.Builder
	b.WriteString("💰 *ESTIMADO DE PRECIO*\n\n")
	fmt.Fprintf(&b, "📌 Servicio: %s\n", est.DisplayName)
	fmt.Fprintf(&b, "📝 Descripción: %s\n", est.Description)
	fmt.Fprintf(&b, "💵 Precio estimado: $%d %s\n", est.FinalPrice, est.Currency)
	fmt.Fprintf(&b, "⏱️ Duración: %s\n\n", est.Duration)
	b.WriteString("*Incluye:*\n")

	items := est.Includes
	if len(items) > 5 {
		items = items[:5]
	}
	for _, item := range items {
		fmt.Fprintf(&b, "✓ %s\n", item)
	}

	b.WriteString("\n_Nota: Este es un estimado basado en funcionalidades estándar. El precio final puede variar según tus necesidades específicas._\n\n")
	b.WriteString("¿Te gustaría más información o agendar una consulta?")

	return b.String()
}

// containsAny reports whether text contains any of the given words
// after normalization.
func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, normalize(w)) {
			return true
		}
	}
	return false
}

// diacriticFolder maps accented Spanish characters to their base form.
// The keyword sets are a fixed Spanish vocabulary, so a small fold
// table covers every character that can appear.
var diacriticFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u", "Ñ", "n",
)

// normalize lowercases text and strips Spanish diacritics so keyword
// matching is accent-insensitive.
func normalize(s string) string {
	return diacriticFolder.Replace(strings.ToLower(s))
}
