package ui

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// The renderer is rebuilt only when width or style change. The HTTP and MCP
// servers render concurrently, so access goes through rendererMu.
var (
	rendererMu       sync.Mutex
	markdownRenderer *glamour.TermRenderer
	cachedWidth      int
	cachedStyle      string
)

func rendererFor(width int, style string) (*glamour.TermRenderer, error) {
	if width < 1 {
		width = 80
	}
	if style == "" {
		style = "dark"
	}
	if markdownRenderer != nil && width == cachedWidth && style == cachedStyle {
		return markdownRenderer, nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	markdownRenderer = renderer
	cachedWidth = width
	cachedStyle = style
	return renderer, nil
}

// RenderStory renders a story as rich text using the given glamour style.
// Stories are free text; markdown in them is rendered, and plain text passes
// through wrapped. On failure the story is returned unchanged.
func RenderStory(content string, width int, style string) string {
	if content == "" {
		return ""
	}

	rendererMu.Lock()
	defer rendererMu.Unlock()

	r, err := rendererFor(width, style)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}
