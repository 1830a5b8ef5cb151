package utils

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer renders assistant replies with glamour, rebuilding the
// underlying renderer only when the wrap width changes.
type MarkdownRenderer struct {
	mu       sync.Mutex
	width    int
	renderer *glamour.TermRenderer
}

var defaultRenderer = &MarkdownRenderer{}

// RenderMarkdown renders text for a terminal of the given width using the
// shared renderer.
func RenderMarkdown(text string, width int) string {
	return defaultRenderer.Render(text, width)
}

// Render returns text as styled markdown. The original text is returned if
// glamour cannot build a renderer or fails on the input.
func (r *MarkdownRenderer) Render(text string, width int) string {
	if width < 20 {
		width = 80
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.renderer == nil || r.width != width {
		// the TUI owns the terminal, so no background colour query here
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return text
		}
		r.renderer = renderer
		r.width = width
	}

	rendered, err := r.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(rendered, "\n")
}
