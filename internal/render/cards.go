// Package render maps items to card descriptions.
//
// Nothing here touches a terminal or a document: Board is plain data, and hosts (TUI, CLI
// html output) draw it. Text fields are escaped for the target surface before they land in
// a Card, so a name like "<script>" is always shown literally.
package render

import (
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/dkjgA893274/fastapi-freamarket/internal/model"

	xansi "github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
)

const (
	Placeholder   = "商品がありません。新しい商品を追加してください。"
	CurrencyGlyph = "¥"
	DeleteLabel   = "削除"
)

type ActionKind string

const ActionDelete ActionKind = "delete"

// Action is a card button. ItemID is captured when the card is built.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Label  string     `json:"label"`
	ItemID int        `json:"itemId"`
}

type Card struct {
	ID          int              `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Price       string           `json:"price"`
	Status      model.ItemStatus `json:"status,omitempty"`
	Actions     []Action         `json:"actions"`
}

// Board is the rendered item section: either a placeholder or one card per item.
type Board struct {
	Empty       bool   `json:"empty"`
	Placeholder string `json:"placeholder,omitempty"`
	Cards       []Card `json:"cards"`
}

// Escaper neutralizes text for a display surface.
type Escaper func(string) string

// HTMLText escapes text for insertion into markup.
func HTMLText(s string) string {
	return html.EscapeString(s)
}

// TerminalText drops ANSI sequences and control characters (other than newline and tab),
// so item text cannot move the cursor or recolor the screen.
func TerminalText(s string) string {
	s = xansi.Strip(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r < 0x20 || r == 0x7f || (r >= 0x80 && r < 0xa0):
			return -1
		default:
			return r
		}
	}, s)
}

// FormatPrice renders a price with thousands separators and the currency glyph ("¥1,234").
func FormatPrice(price int) string {
	return CurrencyGlyph + humanize.Comma(int64(price))
}

// NewBoard builds the board for items in the given order. A nil esc leaves text as is.
func NewBoard(items []model.Item, esc Escaper) Board {
	if esc == nil {
		esc = func(s string) string { return s }
	}
	if len(items) == 0 {
		return Board{Empty: true, Placeholder: Placeholder, Cards: []Card{}}
	}
	cards := make([]Card, 0, len(items))
	for _, it := range items {
		cards = append(cards, NewCard(it, esc))
	}
	return Board{Cards: cards}
}

func NewCard(it model.Item, esc Escaper) Card {
	return Card{
		ID:          it.ID,
		Name:        esc(it.Name),
		Description: esc(it.Description),
		Price:       FormatPrice(it.Price),
		Status:      it.Status,
		Actions: []Action{
			{Kind: ActionDelete, Label: DeleteLabel, ItemID: it.ID},
		},
	}
}

// WriteHTML writes the item container markup for a board built with HTMLText.
func WriteHTML(w io.Writer, b Board) error {
	var sb strings.Builder
	sb.WriteString(`<div id="itemsContainer">` + "\n")
	if b.Empty {
		sb.WriteString(`  <p class="items-empty">` + html.EscapeString(b.Placeholder) + "</p>\n")
	}
	for _, c := range b.Cards {
		fmt.Fprintf(&sb, "  <div class=\"item-card\" data-item-id=\"%d\">\n", c.ID)
		fmt.Fprintf(&sb, "    <div class=\"item-name\">%s</div>\n", c.Name)
		fmt.Fprintf(&sb, "    <div class=\"item-description\">%s</div>\n", c.Description)
		fmt.Fprintf(&sb, "    <div class=\"item-price\">%s</div>\n", html.EscapeString(c.Price))
		sb.WriteString("    <div class=\"item-actions\">\n")
		for _, a := range c.Actions {
			fmt.Fprintf(&sb, "      <button class=\"btn btn-danger\" data-action=\"%s\" data-item-id=\"%d\">%s</button>\n",
				a.Kind, a.ItemID, html.EscapeString(a.Label))
		}
		sb.WriteString("    </div>\n")
		sb.WriteString("  </div>\n")
	}
	sb.WriteString("</div>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
