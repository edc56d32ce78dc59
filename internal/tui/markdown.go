package tui

import (
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

var (
	mdRendererMu sync.Mutex
	// Renderers are cached by style + wrap width. WithAutoStyle can block on terminal
	// background queries, so a fixed style is used instead.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

// renderMarkdown renders md for the item detail pane. On any renderer error the source
// text is returned unchanged.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	styleName := markdownStyle()
	key := styleName + ":" + strconv.Itoa(width)

	mdRendererMu.Lock()
	r := mdRenderers[key]
	mdRendererMu.Unlock()

	if r == nil {
		cfg := markdownStyleConfig(styleName)
		zero := uint(0)
		cfg.Document.Margin = &zero
		rr, err := glamour.NewTermRenderer(
			glamour.WithStyles(cfg),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRendererMu.Lock()
		if existing := mdRenderers[key]; existing != nil {
			r = existing
		} else {
			mdRenderers[key] = rr
			r = rr
		}
		mdRendererMu.Unlock()
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func markdownStyle() string {
	switch themeOverride {
	case "light", "dark":
		return themeOverride
	}
	if dark, ok := colorFGBGDark(); ok {
		if dark {
			return "dark"
		}
		return "light"
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func markdownStyleConfig(styleName string) ansi.StyleConfig {
	cfg := styles.DarkStyleConfig
	if styleName == "light" {
		cfg = styles.LightStyleConfig
	}
	applyMarkdownPalette(&cfg, styleName)
	return cfg
}

// applyMarkdownPalette keeps headings and body text on the surface color and links on
// the accent color.
func applyMarkdownPalette(cfg *ansi.StyleConfig, styleName string) {
	fg := mdColor(colorSurfaceFg, styleName)
	cfg.Heading.Color = fg
	cfg.H1.Color = fg
	cfg.H2.Color = fg
	cfg.H3.Color = fg
	cfg.Text.Color = fg
	cfg.Code.Color = fg
	cfg.CodeBlock.Color = fg

	link := mdColor(colorAccent, styleName)
	cfg.Link.Color = link
	cfg.Link.Underline = mdBoolPtr(true)
	cfg.LinkText.Color = link

	cfg.Strong.Color = nil
	cfg.Emph.Color = nil
	cfg.BlockQuote.Faint = mdBoolPtr(false)
}

func mdColor(c lipgloss.AdaptiveColor, styleName string) *string {
	if styleName == "light" {
		return &c.Light
	}
	return &c.Dark
}

func mdBoolPtr(b bool) *bool { return &b }
