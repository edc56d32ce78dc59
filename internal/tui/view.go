package tui

import (
	"fmt"
	"strings"

	"github.com/dkjgA893274/fastapi-freamarket/internal/client"
	"github.com/dkjgA893274/fastapi-freamarket/internal/model"
	"github.com/dkjgA893274/fastapi-freamarket/internal/notify"
	"github.com/dkjgA893274/fastapi-freamarket/internal/render"

	"github.com/charmbracelet/lipgloss"
)

const (
	headerHeight = 2
	footerHeight = 1
)

func (m appModel) viewWidth() int {
	if m.width < 40 {
		return 40
	}
	return m.width
}

func (m *appModel) resizeList() {
	h := m.height - headerHeight - footerHeight - 2
	if h < 8 {
		h = 8
	}
	m.itemsList.SetSize(m.viewWidth(), h)
}

func (m appModel) View() string {
	w := m.viewWidth()

	var body string
	switch m.snap.Screen {
	case client.ScreenItems:
		body = m.viewItems()
	case client.ScreenSignup:
		body = lipgloss.PlaceHorizontal(w, lipgloss.Center, m.auth.view("新規登録", w))
	default:
		body = lipgloss.PlaceHorizontal(w, lipgloss.Center, m.auth.view("ログイン", w))
	}

	if overlay := m.viewModal(); overlay != "" {
		body = lipgloss.PlaceHorizontal(w, lipgloss.Center, overlay)
	}

	parts := []string{m.viewHeader(), body}
	if notes := m.viewNotifications(); notes != "" {
		parts = append(parts, notes)
	}
	parts = append(parts, m.viewFooter())
	return strings.Join(parts, "\n")
}

// viewHeader shows the nav buttons that are visible on the current screen.
func (m appModel) viewHeader() string {
	title := lipgloss.NewStyle().Bold(true).Render("freamarket")
	meta := styleMuted().Render(m.opts.Server)
	if m.snap.LoggedIn {
		meta += styleMuted().Render("  @" + m.snap.Username)
	}

	btn := lipgloss.NewStyle().Padding(0, 1).Foreground(colorSurfaceFg).Background(colorControlBg)
	active := btn.Foreground(colorAccentFg).Background(colorAccent).Bold(true)

	var nav []string
	vis := m.snap.Screen.Visibility()
	if vis[client.RegionLoginButton] {
		st := btn
		if vis[client.RegionLoginForm] {
			st = active
		}
		nav = append(nav, st.Render("ログイン"))
	}
	if vis[client.RegionSignupButton] {
		st := btn
		if vis[client.RegionSignupForm] {
			st = active
		}
		nav = append(nav, st.Render("新規登録"))
	}
	if vis[client.RegionLogoutButton] {
		nav = append(nav, btn.Render("ログアウト (L)"))
	}

	left := title + "  " + meta
	right := strings.Join(nav, " ")
	gap := m.viewWidth() - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right + "\n"
}

func (m appModel) viewItems() string {
	w := m.viewWidth()
	h := m.height - headerHeight - footerHeight - 2
	if h < 8 {
		h = 8
	}
	if !m.snap.Loaded {
		return normalizePane(styleMuted().Render("読み込み中…"), w, h)
	}
	if m.snap.Board.Empty {
		return normalizePane(styleMuted().Render(m.snap.Board.Placeholder), w, h)
	}
	var lines []string
	if m.snap.Query != "" {
		lines = append(lines, styleMuted().Render(fmt.Sprintf("検索: %q  (%d件)", m.snap.Query, len(m.snap.Board.Cards))))
		h--
	}
	lines = append(lines, m.itemsList.View())
	return normalizePane(strings.Join(lines, "\n"), w, h)
}

func (m appModel) viewModal() string {
	w := m.viewWidth()
	switch m.modal {
	case modalAddItem:
		return m.itemForm.view(w)
	case modalConfirmDelete:
		name := ""
		if c, ok := m.selectedCard(); ok && c.ID == m.pendingID {
			name = c.Name
		}
		body := client.MsgDeleteConfirm
		if name != "" {
			body = name + "\n\n" + body
		}
		return renderConfirmModal(w, render.DeleteLabel, body, "削除する", "キャンセル", m.confirmFocus)
	case modalSearch:
		bodyW := modalBodyWidth(w)
		content := renderInputLine(bodyW, m.searchInput.View()) + "\n\n" +
			styleMuted().Width(bodyW).Render("enter: search   esc: cancel")
		return renderModalBox(w, "検索", content)
	case modalDetail:
		if m.detail == nil {
			return ""
		}
		return renderModalBox(w, render.TerminalText(m.detail.Name), m.detailBody(*m.detail, modalBodyWidth(w)))
	}
	return ""
}

func (m appModel) detailBody(it model.Item, width int) string {
	status := string(it.Status)
	if status == "" {
		status = string(model.ItemStatusOnSale)
	}
	price := lipgloss.NewStyle().Bold(true).Foreground(colorPriceFg).Render(render.FormatPrice(it.Price))
	head := price + "  " + styleMuted().Render(status+fmt.Sprintf("  #%d", it.ID))

	desc := render.TerminalText(it.Description)
	if m.opts.Markdown {
		desc = renderMarkdown(desc, width)
	} else {
		desc = lipgloss.NewStyle().Width(width).Render(desc)
	}
	var meta []string
	if it.CreatedAt != nil {
		meta = append(meta, "created "+it.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if it.UpdatedAt != nil {
		meta = append(meta, "updated "+it.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	out := head + "\n\n" + desc
	if len(meta) > 0 {
		out += "\n\n" + styleMuted().Render(strings.Join(meta, "  |  "))
	}
	return out + "\n\n" + styleMuted().Render("esc: close")
}

func (m appModel) viewNotifications() string {
	active := m.ctl.Notifier().Active()
	if len(active) == 0 {
		return ""
	}
	lines := make([]string, 0, len(active))
	for _, n := range active {
		lines = append(lines, noteStyle(n.Kind).Render(n.Text))
	}
	return lipgloss.PlaceHorizontal(m.viewWidth(), lipgloss.Right, strings.Join(lines, "\n"))
}

func noteStyle(k notify.Kind) lipgloss.Style {
	st := lipgloss.NewStyle().Padding(0, 1).Foreground(colorAccentFg)
	switch k {
	case notify.KindSuccess:
		return st.Background(colorNoteSuccessBg)
	case notify.KindError:
		return st.Background(colorNoteErrorBg)
	default:
		return st.Background(colorNoteInfoBg)
	}
}

func (m appModel) viewFooter() string {
	var help string
	switch {
	case m.modal != modalNone:
		help = ""
	case m.snap.Screen == client.ScreenItems:
		help = "↑/↓: move  enter: detail  a: add  d: delete  s: sold out  /: search  r: reload  L: logout  q: quit"
	default:
		help = "tab: next field  enter: submit  ctrl+t: login/signup  ctrl+c: quit"
	}
	return styleMuted().Render(truncateToWidth(help, m.viewWidth()))
}
