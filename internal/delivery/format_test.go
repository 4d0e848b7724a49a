// ABOUTME: Tests for the two-stage delivery formatter
// ABOUTME: Markdown rendering to HTML and the plain-text fallback

package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat_RendersHTML(t *testing.T) {
	f := NewFormatter(nil)

	p := f.Format("Hola **Ana**, tu cotización está lista.")

	assert.Equal(t, ModeHTML, p.Mode)
	assert.Contains(t, p.Text, "<strong>Ana</strong>")
	assert.Contains(t, p.Text, "cotización")
}

func TestFormat_MultilineQuote(t *testing.T) {
	f := NewFormatter(nil)

	p := f.Format("💰 **Cotización: Sitio Web**\n\n- Precio estimado: **1400 USD**\n- Tiempo: 2-4 semanas")

	assert.Equal(t, ModeHTML, p.Mode)
	assert.Contains(t, p.Text, "<strong>Cotización: Sitio Web</strong>")
	assert.Contains(t, p.Text, "<li>")
}

func TestPlain_StripsMarkers(t *testing.T) {
	f := NewFormatter(nil)

	p := f.Plain("Hola **Ana**, usa el comando `/start` para *empezar*.")

	assert.Equal(t, ModePlain, p.Mode)
	assert.Equal(t, "Hola Ana, usa el comando /start para empezar.", p.Text)
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bold", "**fuerte**", "fuerte"},
		{"italic", "algo *suave* aquí", "algo suave aquí"},
		{"underscore italic", "una _nota_ final", "una nota final"},
		{"underscore italic at start", "_Nota: Esta es una cotización referencial._", "Nota: Esta es una cotización referencial."},
		{"snake_case untouched", "el servicio sitio_web sigue igual", "el servicio sitio_web sigue igual"},
		{"code", "usa `esto`", "usa esto"},
		{"plain passthrough", "sin marcas", "sin marcas"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkdown(tt.in))
		})
	}
}
