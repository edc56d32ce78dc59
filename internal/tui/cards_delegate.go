package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/dkjgA893274/fastapi-freamarket/internal/model"
	"github.com/dkjgA893274/fastapi-freamarket/internal/render"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// cardItem adapts a render.Card to the bubbles list.
type cardItem struct {
	card render.Card
}

func (c cardItem) FilterValue() string { return c.card.Name }

type cardDelegate struct {
	normalCard   lipgloss.Style
	selectedCard lipgloss.Style

	titleStyle   lipgloss.Style
	metaStyle    lipgloss.Style
	priceStyle   lipgloss.Style
	soldOutStyle lipgloss.Style
	actionStyle  lipgloss.Style
}

func newCardDelegate() cardDelegate {
	base := lipgloss.NewStyle().
		Padding(0, 1, 0, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorMuted).
		Foreground(colorSurfaceFg)

	return cardDelegate{
		normalCard:   base,
		selectedCard: base.BorderForeground(colorAccent),
		titleStyle:   lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg),
		metaStyle:    lipgloss.NewStyle().Foreground(colorCardMetaFg),
		priceStyle:   lipgloss.NewStyle().Bold(true).Foreground(colorPriceFg),
		soldOutStyle: lipgloss.NewStyle().Bold(true).Foreground(colorSoldOutFg),
		actionStyle: lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(colorAccentFg).
			Background(colorAccent),
	}
}

func (d cardDelegate) Height() int  { return 5 } // 3 inner lines + border top/bottom
func (d cardDelegate) Spacing() int { return 1 }
func (d cardDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d cardDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(cardItem)
	if !ok {
		return
	}
	totalW := m.Width()
	if totalW < 12 {
		return
	}

	card := d.normalCard
	selected := index == m.Index()
	if selected {
		card = d.selectedCard
	}
	innerW := totalW - card.GetHorizontalFrameSize()
	if innerW < 1 {
		innerW = 1
	}
	card = card.Width(innerW + card.GetHorizontalPadding())

	lines := []string{
		d.titleStyle.Render(truncateToWidth(it.card.Name, innerW)),
		d.metaStyle.Render(truncateToWidth(it.card.Description, innerW)),
		d.footerLine(it.card, selected),
	}
	for i := range lines {
		lines[i] = padOrCutANSI(lines[i], innerW)
	}
	fmt.Fprint(w, card.Render(strings.Join(lines, "\n")))
}

// footerLine shows the price, a sold-out badge and, on the selected card, its actions.
func (d cardDelegate) footerLine(c render.Card, selected bool) string {
	parts := []string{d.priceStyle.Render(c.Price)}
	if c.Status == model.ItemStatusSoldOut {
		parts = append(parts, d.soldOutStyle.Render("SOLD OUT"))
	}
	if selected {
		for _, a := range c.Actions {
			if a.Kind == render.ActionDelete {
				parts = append(parts, d.actionStyle.Render("d "+a.Label))
			}
		}
	}
	return strings.Join(parts, "  ")
}

func newItemsList() list.Model {
	l := list.New([]list.Item{}, newCardDelegate(), 0, 0)
	l.Title = "Items"
	// The app draws its own header, footer and notifications.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(true)
	// "/" searches on the backend instead of filtering locally.
	l.SetFilteringEnabled(false)
	l.KeyMap.Quit.SetKeys("q")
	// Emacs-style aliases.
	l.KeyMap.CursorUp.SetKeys(append(l.KeyMap.CursorUp.Keys(), "ctrl+p")...)
	l.KeyMap.CursorDown.SetKeys(append(l.KeyMap.CursorDown.Keys(), "ctrl+n")...)
	return l
}

// setCards replaces the list contents, keeping the selection on the same item id when
// it is still present.
func setCards(l *list.Model, cards []render.Card) {
	curID := 0
	if it, ok := l.SelectedItem().(cardItem); ok {
		curID = it.card.ID
	}
	items := make([]list.Item, 0, len(cards))
	for _, c := range cards {
		items = append(items, cardItem{card: c})
	}
	l.SetItems(items)
	if curID != 0 {
		selectCard(l, curID)
	}
}

// selectCard moves the cursor to the card with id and reports whether it was found.
func selectCard(l *list.Model, id int) bool {
	for i, it := range l.Items() {
		if c, ok := it.(cardItem); ok && c.card.ID == id {
			l.Select(i)
			return true
		}
	}
	return false
}
