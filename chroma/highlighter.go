// Package chroma highlights evaluation reports using the chroma library.
package chroma

import (
	"strings"

	chromalib "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	lg "github.com/charmbracelet/lipgloss"
	ui "github.com/fwojciec/autoeval/lipgloss"
)

// Report languages.
const (
	LanguageJSON     = "json"
	LanguageMarkdown = "markdown"
)

// Highlighter renders report text with terminal colors.
type Highlighter struct {
	renderer *lg.Renderer
	theme    *ui.Theme
}

// HighlighterOption configures a Highlighter.
type HighlighterOption func(*Highlighter)

// WithRenderer sets the Lipgloss renderer used for styling.
func WithRenderer(r *lg.Renderer) HighlighterOption {
	return func(h *Highlighter) {
		h.renderer = r
	}
}

// WithTheme sets the color theme.
func WithTheme(t *ui.Theme) HighlighterOption {
	return func(h *Highlighter) {
		h.theme = t
	}
}

// NewHighlighter creates a new Highlighter.
func NewHighlighter(opts ...HighlighterOption) *Highlighter {
	h := &Highlighter{renderer: lg.DefaultRenderer(), theme: ui.DefaultTheme()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// DetectLanguage returns LanguageJSON for JSON reports, fenced or bare, and
// LanguageMarkdown otherwise.
func DetectLanguage(report string) string {
	trimmed := strings.TrimSpace(report)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "```json") {
		return LanguageJSON
	}
	return LanguageMarkdown
}

// Highlight returns report with syntax colors applied. The visible text is
// unchanged; it is returned as-is when it cannot be tokenized.
func (h *Highlighter) Highlight(report string) string {
	if report == "" {
		return report
	}

	lexer := lexers.Get(DetectLanguage(report))
	if lexer == nil {
		return report
	}

	// Coalesce for better performance with consecutive tokens of the same type
	lexer = chromalib.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, report)
	if err != nil {
		return report
	}

	var b strings.Builder
	for token := iterator(); token != chromalib.EOF; token = iterator() {
		style, ok := h.style(token.Type)
		if !ok {
			b.WriteString(token.Value)
			continue
		}
		// Render line by line so multi-line tokens are not padded to a block.
		for i, line := range strings.Split(token.Value, "\n") {
			if i > 0 {
				b.WriteString("\n")
			}
			if line != "" {
				b.WriteString(style.Render(line))
			}
		}
	}

	// Some lexers append a trailing newline.
	out := b.String()
	if !strings.HasSuffix(report, "\n") {
		out = strings.TrimSuffix(out, "\n")
	}
	return out
}

func (h *Highlighter) style(tt chromalib.TokenType) (lg.Style, bool) {
	s := h.renderer.NewStyle()
	switch {
	case tt == chromalib.GenericHeading || tt == chromalib.GenericSubheading:
		return s.Foreground(h.theme.Header).Bold(true), true
	case tt == chromalib.GenericStrong:
		return s.Bold(true), true
	case tt == chromalib.GenericEmph:
		return s.Italic(true), true
	case tt == chromalib.NameTag:
		return s.Foreground(h.theme.Header), true
	case tt.InCategory(chromalib.Keyword):
		return s.Foreground(h.theme.Warn), true
	case tt.InSubCategory(chromalib.LiteralString):
		return s.Foreground(h.theme.Pass), true
	case tt.InSubCategory(chromalib.LiteralNumber):
		return s.Foreground(h.theme.Warn), true
	case tt.InCategory(chromalib.Comment):
		return s.Foreground(h.theme.Muted), true
	case tt == chromalib.Punctuation:
		return s.Foreground(h.theme.Border), true
	default:
		return s, false
	}
}
