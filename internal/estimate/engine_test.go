// ABOUTME: Tests for service detection, complexity inference and price estimation
// ABOUTME: Pins the detection confidence formula and the multiplier composition convention

package estimate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectService_SingleKeyword(t *testing.T) {
	e := NewEngine("")

	key, confidence := e.DetectService("necesito un sitio web para mi negocio")
	assert.Equal(t, "sitio_web", key)
	assert.InDelta(t, 0.5, confidence, 0.0001)
}

func TestDetectService_MultipleKeywordsRaiseConfidence(t *testing.T) {
	e := NewEngine("")

	// "sitio web" and "página web" both match the same service.
	key, confidence := e.DetectService("quiero un sitio web, una página web moderna")
	assert.Equal(t, "sitio_web", key)
	assert.InDelta(t, 0.75, confidence, 0.0001)
}

func TestDetectService_AccentInsensitive(t *testing.T) {
	e := NewEngine("")

	// No diacritics in the input, keyword declared with them.
	key, confidence := e.DetectService("me interesa una aplicacion movil")
	assert.Equal(t, "app_movil", key)
	assert.GreaterOrEqual(t, confidence, 0.5)
}

func TestDetectService_NoMatch(t *testing.T) {
	e := NewEngine("")

	key, confidence := e.DetectService("hola, ¿cómo estás?")
	assert.Empty(t, key)
	assert.Zero(t, confidence)
}

func TestDetectService_TieBreaksByCatalogOrder(t *testing.T) {
	e := NewEngine("")

	// One keyword hit for sitio_web and one for seo: both score 0.5,
	// sitio_web is declared first.
	key, confidence := e.DetectService("quiero un sitio web con buen ranking")
	assert.Equal(t, "sitio_web", key)
	assert.InDelta(t, 0.5, confidence, 0.0001)
}

func TestDetectService_Deterministic(t *testing.T) {
	e := NewEngine("")
	msg := "quiero una tienda online para vender online"

	key1, conf1 := e.DetectService(msg)
	key2, conf2 := e.DetectService(msg)
	assert.Equal(t, key1, key2)
	assert.Equal(t, conf1, conf2)
	assert.Equal(t, "ecommerce", key1)
}

func TestDetectComplexity(t *testing.T) {
	e := NewEngine("")

	tests := []struct {
		message string
		want    string
	}{
		{"quiero algo simple y basico", LevelSimple},
		{"necesito un proyecto complejo con multiples integraciones", LevelComplex},
		{"una pagina web estandar", LevelStandard},
		// Simple words win when both sets appear.
		{"algo sencillo pero con integraciones", LevelSimple},
		{"", LevelStandard},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, e.DetectComplexity(tt.message), "message: %q", tt.message)
	}
}

func TestEstimate_UnknownService(t *testing.T) {
	e := NewEngine("")

	est, ok := e.Estimate("blockchain", "", LevelStandard)
	assert.False(t, ok)
	assert.Nil(t, est)
}

func TestEstimate_StandardNoDetails(t *testing.T) {
	e := NewEngine("")

	est, ok := e.Estimate("sitio_web", "", LevelStandard)
	require.True(t, ok)
	assert.Equal(t, 2000, est.BasePrice)
	assert.Equal(t, 2000, est.FinalPrice)
	assert.Equal(t, 1.0, est.ComplexityMultiplier)
	assert.Equal(t, 1.0, est.AdjustmentFactor)
	assert.Equal(t, "USD", est.Currency)
}

func TestEstimate_LevelMultipliers(t *testing.T) {
	e := NewEngine("")

	tests := []struct {
		level string
		want  int
	}{
		{LevelSimple, 1400},   // 2000 * 0.7
		{LevelStandard, 2000}, // 2000 * 1.0
		{LevelComplex, 3000},  // 2000 * 1.5
		{"desconocido", 2000}, // unknown level falls back to standard
	}

	for _, tt := range tests {
		est, ok := e.Estimate("sitio_web", "", tt.level)
		require.True(t, ok)
		assert.Equal(t, tt.want, est.FinalPrice, "level: %s", tt.level)
	}
}

func TestEstimate_DetailsAdjustments(t *testing.T) {
	e := NewEngine("")

	est, ok := e.Estimate("app_movil", "con integraciones avanzadas y apis", LevelStandard)
	require.True(t, ok)
	assert.Equal(t, 1.3, est.AdjustmentFactor)
	assert.Equal(t, 6500, est.FinalPrice) // 5000 * 1.0 * 1.3

	est, ok = e.Estimate("app_movil", "algo sencillo nada más", LevelStandard)
	require.True(t, ok)
	assert.Equal(t, 0.8, est.AdjustmentFactor)
	assert.Equal(t, 4000, est.FinalPrice) // 5000 * 1.0 * 0.8

	// High-complexity markers win over low ones.
	est, ok = e.Estimate("app_movil", "simple pero con integraciones", LevelStandard)
	require.True(t, ok)
	assert.Equal(t, 1.3, est.AdjustmentFactor)
}

// The level multiplier and the details adjustment are computed
// independently: a word like "básico" can set the level to simple AND
// trigger the low-complexity adjustment when the raw message is passed
// as details. This pins that double-counting convention.
func TestEstimate_LevelAndDetailsCompose(t *testing.T) {
	e := NewEngine("")
	msg := "¿Cuánto cuesta un sitio web básico?"

	level := e.DetectComplexity(msg)
	require.Equal(t, LevelSimple, level)

	est, ok := e.Estimate("sitio_web", msg, level)
	require.True(t, ok)
	assert.Equal(t, 0.7, est.ComplexityMultiplier)
	assert.Equal(t, 0.8, est.AdjustmentFactor)
	assert.Equal(t, 1120, est.FinalPrice) // 2000 * 0.7 * 0.8

	// Under the alternative convention (details kept distinct from the
	// level words) the same request prices at 2000 * 0.7 * 1.0.
	est, ok = e.Estimate("sitio_web", "", level)
	require.True(t, ok)
	assert.Equal(t, 1.0, est.AdjustmentFactor)
	assert.Equal(t, 1400, est.FinalPrice)
}

func TestEstimate_Idempotent(t *testing.T) {
	e := NewEngine("")

	first, ok := e.Estimate("ecommerce", "tienda con pasarela", LevelComplex)
	require.True(t, ok)
	second, ok := e.Estimate("ecommerce", "tienda con pasarela", LevelComplex)
	require.True(t, ok)
	assert.Equal(t, first.FinalPrice, second.FinalPrice)
}

func TestFormat_ContainsNameAndPrice(t *testing.T) {
	e := NewEngine("")

	for _, svc := range Catalog() {
		est, ok := e.Estimate(svc.Key, "", LevelStandard)
		require.True(t, ok)

		text := e.Format(est)
		assert.Contains(t, text, svc.DisplayName)
		assert.Contains(t, text, "$")
		assert.Contains(t, text, "USD")
	}
}

func TestFormat_CapsIncludedItems(t *testing.T) {
	e := NewEngine("")

	est, ok := e.Estimate("sitio_web", "", LevelStandard)
	require.True(t, ok)

	text := e.Format(est)
	assert.Equal(t, 5, strings.Count(text, "✓"))
}

func TestFormat_NilEstimate(t *testing.T) {
	e := NewEngine("")

	text := e.Format(nil)
	assert.Contains(t, text, "No pude detectar")
}

func TestEngine_CurrencyOverride(t *testing.T) {
	e := NewEngine("MXN")

	est, ok := e.Estimate("consultoria", "", LevelStandard)
	require.True(t, ok)
	assert.Equal(t, "MXN", est.Currency)
}
