package render

import (
	"bytes"
	"html"
	"strings"

	"github.com/dkjgA893274/fastapi-freamarket/internal/model"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		emoji.Emoji,
	),
	goldmark.WithRendererOptions(
		// Raw HTML stays disabled (no html.WithUnsafe()).
		gmhtml.WithHardWraps(),
	),
)

var markdownPolicy = bluemonday.UGCPolicy()

// MarkdownHTML renders a description as sanitized HTML. On a render error the source is
// returned escaped inside <pre>.
func MarkdownHTML(src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var b bytes.Buffer
	if err := markdownRenderer.Convert([]byte(src), &b); err != nil {
		return "<pre>" + html.EscapeString(src) + "</pre>"
	}
	return markdownPolicy.Sanitize(b.String())
}

// NewHTMLBoard builds a board for WriteHTML. With markdown, descriptions are rendered
// as markdown instead of escaped text; names are always escaped.
func NewHTMLBoard(items []model.Item, markdown bool) Board {
	b := NewBoard(items, HTMLText)
	if !markdown {
		return b
	}
	for i := range b.Cards {
		b.Cards[i].Description = MarkdownHTML(items[i].Description)
	}
	return b
}
