package tui

import (
	"context"
	"errors"

	"github.com/dkjgA893274/fastapi-freamarket/internal/client"
	"github.com/dkjgA893274/fastapi-freamarket/internal/model"
	"github.com/dkjgA893274/fastapi-freamarket/internal/render"
	"github.com/dkjgA893274/fastapi-freamarket/internal/store"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type modalKind int

const (
	modalNone modalKind = iota
	modalAddItem
	modalConfirmDelete
	modalSearch
	modalDetail
)

// Messages produced by background commands.
type (
	// notesChangedMsg is sent whenever a notification is shown or expires.
	notesChangedMsg struct{}

	restoredMsg struct{ ok bool }

	actionDoneMsg struct {
		action string
		err    error
	}

	detailMsg struct {
		item model.Item
		err  error
	}
)

// Action names carried by actionDoneMsg.
const (
	actLogin  = "login"
	actSignup = "signup"
	actReload = "reload"
	actSearch = "search"
	actAdd    = "add"
	actUpdate = "update"
	actDelete = "delete"
)

type appModel struct {
	ctl  *client.Controller
	opts Options
	ctx  context.Context

	width  int
	height int

	snap client.Snapshot

	auth      authForm
	itemsList list.Model

	modal        modalKind
	itemForm     itemForm
	searchInput  textinput.Model
	confirmFocus confirmModalFocus
	pendingID    int
	detail       *model.Item

	// restoreID is the card to select when the first non-empty board arrives.
	restoreID int
}

func newAppModel(ctl *client.Controller, opts Options) appModel {
	m := appModel{
		ctl:         ctl,
		opts:        opts,
		ctx:         context.Background(),
		auth:        newAuthForm(),
		itemsList:   newItemsList(),
		itemForm:    newItemForm(),
		searchInput: newInput("商品名で検索 (空で全件)", 20),
	}
	if opts.State != nil {
		m.restoreID = opts.State.SelectedItemID
	}
	m.refresh()
	return m
}

func (m appModel) Init() tea.Cmd {
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg {
		return restoredMsg{ok: ctl.RestoreSession(ctx)}
	}
}

// refresh pulls a fresh snapshot from the controller and syncs the list.
func (m *appModel) refresh() {
	m.snap = m.ctl.Snapshot()
	setCards(&m.itemsList, m.snap.Board.Cards)
	if m.restoreID != 0 && len(m.snap.Board.Cards) > 0 {
		selectCard(&m.itemsList, m.restoreID)
		m.restoreID = 0
	}
	if m.snap.Screen != client.ScreenItems && m.modal != modalNone {
		m.closeModal()
	}
}

// uiState captures what is remembered across launches.
func (m appModel) uiState() *store.TUIState {
	st := &store.TUIState{Version: 1}
	if c, ok := m.selectedCard(); ok && m.snap.Screen == client.ScreenItems {
		st.SelectedItemID = c.ID
	}
	return st
}

// run executes fn off the UI goroutine and reports back with an actionDoneMsg.
func (m appModel) run(action string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn(ctx)}
	}
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeList()
		return m, nil

	case notesChangedMsg:
		return m, nil

	case restoredMsg:
		m.refresh()
		return m, nil

	case actionDoneMsg:
		return m.handleActionDone(msg), nil

	case detailMsg:
		if msg.err == nil {
			it := msg.item
			m.detail = &it
			m.modal = modalDetail
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.modal != modalNone {
			return m.updateModal(msg)
		}
		if m.snap.Screen == client.ScreenItems {
			return m.updateItems(msg)
		}
		return m.updateAuth(msg)
	}
	return m, nil
}

func (m appModel) handleActionDone(msg actionDoneMsg) appModel {
	m.refresh()
	if errors.Is(msg.err, client.ErrInFlight) {
		return m
	}
	switch msg.action {
	case actSignup:
		if msg.err == nil {
			m.auth.reset()
		}
	case actAdd:
		if msg.err == nil {
			m.itemForm.reset()
			m.closeModal()
		}
	case actSearch:
		if msg.err == nil {
			m.closeModal()
		}
	}
	return m
}

func (m appModel) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.auth.setFocus(m.auth.focus + 1)
		return m, nil
	case "shift+tab", "up":
		m.auth.setFocus(m.auth.focus - 1)
		return m, nil
	case "ctrl+t":
		if m.snap.Screen == client.ScreenLogin {
			m.ctl.ShowSignupForm()
		} else {
			m.ctl.ShowLoginForm()
		}
		m.refresh()
		return m, nil
	case "esc":
		if m.snap.Screen == client.ScreenSignup {
			m.ctl.ShowLoginForm()
			m.refresh()
		}
		return m, nil
	case "enter":
		if m.auth.focus == 0 {
			m.auth.setFocus(1)
			return m, nil
		}
		username, password := m.auth.values()
		ctl := m.ctl
		if m.snap.Screen == client.ScreenSignup {
			return m, m.run(actSignup, func(ctx context.Context) error {
				return ctl.Signup(ctx, username, password)
			})
		}
		return m, m.run(actLogin, func(ctx context.Context) error {
			return ctl.Login(ctx, username, password)
		})
	}
	var cmd tea.Cmd
	m.auth, cmd = m.auth.update(msg)
	return m, cmd
}

func (m appModel) selectedCard() (render.Card, bool) {
	it, ok := m.itemsList.SelectedItem().(cardItem)
	if !ok {
		return render.Card{}, false
	}
	return it.card, true
}

func (m appModel) updateItems(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctl := m.ctl
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "L":
		ctl.Logout(m.ctx)
		m.refresh()
		return m, nil
	case "r":
		return m, m.run(actReload, ctl.ListItems)
	case "a":
		m.modal = modalAddItem
		m.itemForm.setFocus(0)
		return m, nil
	case "/":
		m.modal = modalSearch
		m.searchInput.SetValue(m.snap.Query)
		m.searchInput.Focus()
		return m, nil
	case "enter":
		c, ok := m.selectedCard()
		if !ok {
			return m, nil
		}
		ctx := m.ctx
		return m, func() tea.Msg {
			it, err := ctl.ShowItem(ctx, c.ID)
			return detailMsg{item: it, err: err}
		}
	case "d", "x":
		c, ok := m.selectedCard()
		if !ok {
			return m, nil
		}
		m.modal = modalConfirmDelete
		m.pendingID = c.ID
		m.confirmFocus = confirmFocusCancel
		return m, nil
	case "s":
		c, ok := m.selectedCard()
		if !ok {
			return m, nil
		}
		next := model.ItemStatusSoldOut
		if c.Status == model.ItemStatusSoldOut {
			next = model.ItemStatusOnSale
		}
		return m, m.run(actUpdate, func(ctx context.Context) error {
			return ctl.UpdateItem(ctx, c.ID, model.ItemUpdate{Status: &next})
		})
	}
	var cmd tea.Cmd
	m.itemsList, cmd = m.itemsList.Update(msg)
	return m, cmd
}

func (m *appModel) closeModal() {
	m.modal = modalNone
	m.pendingID = 0
	m.detail = nil
	m.searchInput.Blur()
}

func (m appModel) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalAddItem:
		return m.updateAddItem(msg)
	case modalConfirmDelete:
		return m.updateConfirmDelete(msg)
	case modalSearch:
		return m.updateSearch(msg)
	case modalDetail:
		if k := msg.String(); k == "esc" || k == "enter" || k == "q" {
			m.closeModal()
		}
		return m, nil
	}
	return m, nil
}

func (m appModel) updateAddItem(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		// Fields are kept until a successful save.
		m.closeModal()
		return m, nil
	case "tab":
		m.itemForm.setFocus(m.itemForm.focus + 1)
		return m, nil
	case "shift+tab":
		m.itemForm.setFocus(m.itemForm.focus - 1)
		return m, nil
	case "ctrl+s":
		name := m.itemForm.name.Value()
		desc := m.itemForm.description.Value()
		price := m.itemForm.price.Value()
		ctl := m.ctl
		return m, m.run(actAdd, func(ctx context.Context) error {
			return ctl.AddItem(ctx, name, desc, price)
		})
	case "enter":
		if m.itemForm.focus != 1 {
			m.itemForm.setFocus(m.itemForm.focus + 1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.itemForm, cmd = m.itemForm.update(msg)
	return m, cmd
}

func (m appModel) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	confirmed := false
	switch msg.String() {
	case "esc", "n", "q":
		m.closeModal()
		return m, nil
	case "tab", "shift+tab", "left", "right", "h", "l":
		if m.confirmFocus == confirmFocusConfirm {
			m.confirmFocus = confirmFocusCancel
		} else {
			m.confirmFocus = confirmFocusConfirm
		}
		return m, nil
	case "y":
		confirmed = true
	case "enter":
		if m.confirmFocus != confirmFocusConfirm {
			m.closeModal()
			return m, nil
		}
		confirmed = true
	}
	if !confirmed {
		return m, nil
	}
	id := m.pendingID
	ctl := m.ctl
	m.closeModal()
	// The modal was the confirmation.
	return m, m.run(actDelete, func(ctx context.Context) error {
		return ctl.DeleteItem(ctx, id, client.Always)
	})
}

func (m appModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeModal()
		return m, nil
	case "enter":
		q := m.searchInput.Value()
		ctl := m.ctl
		if q == "" {
			m.closeModal()
			return m, m.run(actReload, ctl.ListItems)
		}
		return m, m.run(actSearch, func(ctx context.Context) error {
			return ctl.SearchItems(ctx, q)
		})
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}
