// ABOUTME: Two-stage reply formatting for channel delivery
// ABOUTME: Renders markdown to HTML first, falls back to plain text

package delivery

import (
	"bytes"
	"log/slog"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
)

// Mode names the formatting actually applied to a reply
const (
	ModeHTML  = "html"
	ModePlain = "plain"
)

// Payload is a reply ready for a channel adapter to send
type Payload struct {
	Text string
	Mode string
}

// Formatter prepares reply text for delivery. Replies are authored in
// markdown; channels that cannot take HTML get a plain-text rendition
// instead of a raw error.
type Formatter struct {
	md     goldmark.Markdown
	logger *slog.Logger
}

// NewFormatter creates a delivery formatter. logger may be nil.
func NewFormatter(logger *slog.Logger) *Formatter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Formatter{
		md:     goldmark.New(),
		logger: logger.With("component", "delivery"),
	}
}

// Format renders markdown reply text to HTML. When rendering fails the
// reply is downgraded to plain text with markdown markers stripped, so
// the channel always gets something sendable.
func (f *Formatter) Format(text string) Payload {
	var buf bytes.Buffer
	if err := f.md.Convert([]byte(text), &buf); err != nil {
		f.logger.Warn("markdown rendering failed, delivering plain text", "error", err)
		return Payload{Text: StripMarkdown(text), Mode: ModePlain}
	}
	return Payload{Text: strings.TrimSpace(buf.String()), Mode: ModeHTML}
}

// Plain is the second delivery stage: when a channel rejects the
// rendered payload, the adapter retries with this one.
func (f *Formatter) Plain(text string) Payload {
	return Payload{Text: StripMarkdown(text), Mode: ModePlain}
}

var (
	boldPattern   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicPattern = regexp.MustCompile(`(^|[^*])\*([^*]+)\*`)
	// Underscore italics only open at a word boundary, so identifiers
	// like sitio_web pass through untouched.
	underscorePattern = regexp.MustCompile(`(^|\s)_([^_]+)_`)
	codePattern       = regexp.MustCompile("`([^`]+)`")
)

// StripMarkdown removes the markdown markers the replies use, leaving
// readable plain text.
func StripMarkdown(text string) string {
	text = boldPattern.ReplaceAllString(text, "$1")
	text = italicPattern.ReplaceAllString(text, "$1$2")
	text = underscorePattern.ReplaceAllString(text, "$1$2")
	text = codePattern.ReplaceAllString(text, "$1")
	return text
}
