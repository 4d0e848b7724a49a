// ABOUTME: Analytics capability: serves aggregate counters as a chat reply
// ABOUTME: Reads stats straight from the store, no completion call involved

package capability

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/orbita-hq/leadgate/internal/intent"
	"github.com/orbita-hq/leadgate/internal/store"
)

// StatsSource is the slice of the store the analytics capability needs
type StatsSource interface {
	GetStats(ctx context.Context) (*store.Stats, error)
}

// Analitico answers reporting requests with aggregate counters. It
// reads the store directly; no model call is involved.
type Analitico struct {
	stats  StatsSource
	logger *slog.Logger
}

// NewAnalitico creates the analytics capability
func NewAnalitico(stats StatsSource, logger *slog.Logger) *Analitico {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analitico{
		stats:  stats,
		logger: logger.With("component", "capability", "capability", intent.CapabilityAnalitico),
	}
}

func (a *Analitico) Name() string { return intent.CapabilityAnalitico }

// Respond formats the current aggregate counters as a report.
func (a *Analitico) Respond(ctx context.Context, req *Request) (string, error) {
	stats, err := a.stats.GetStats(ctx)
	if err != nil {
		return "", fmt.Errorf("loading stats: %w", err)
	}

	var b strings.Builder
	b.WriteString("📊 **Métricas actuales**\n\n")
	fmt.Fprintf(&b, "👥 Leads registrados: %d\n", stats.Leads)
	fmt.Fprintf(&b, "💬 Conversaciones: %d\n", stats.Conversations)
	fmt.Fprintf(&b, "✉️ Mensajes totales: %d\n", stats.Turns)
	fmt.Fprintf(&b, "💰 Cotizaciones generadas: %d\n", stats.Quotes)
	return b.String(), nil
}
