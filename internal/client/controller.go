// Package client is the items client: it owns the session, decides which screen is
// visible, and turns user actions into backend calls plus notifications.
//
// Handlers block on HTTP. Hosts run them as independent tasks; the controller's state is
// locked only around reads/writes, never across a request.
package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dkjgA893274/fastapi-freamarket/internal/api"
	"github.com/dkjgA893274/fastapi-freamarket/internal/diag"
	"github.com/dkjgA893274/fastapi-freamarket/internal/model"
	"github.com/dkjgA893274/fastapi-freamarket/internal/notify"
	"github.com/dkjgA893274/fastapi-freamarket/internal/render"
	"github.com/dkjgA893274/fastapi-freamarket/internal/session"
)

var (
	// ErrInFlight rejects a second submit of an action that has not finished yet.
	ErrInFlight = errors.New("request already in flight")
	// ErrDeclined means the user did not confirm a destructive action; nothing was sent.
	ErrDeclined = errors.New("declined")
)

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Always confirms without asking (CLI --yes, TUI after its own modal).
var Always Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

type Controller struct {
	api   *api.Client
	sess  *session.Session
	notes *notify.Center
	log   *diag.Logger
	esc   render.Escaper

	mu          sync.Mutex
	screen      Screen
	items       []model.Item
	board       render.Board
	loaded      bool
	query       string
	listSeq     uint64
	listApplied uint64
	inflight    map[string]bool
}

type Option func(*Controller)

func WithLogger(l *diag.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithEscaper sets how item text is escaped on cards (render.TerminalText by default).
func WithEscaper(esc render.Escaper) Option {
	return func(c *Controller) {
		if esc != nil {
			c.esc = esc
		}
	}
}

func New(apiClient *api.Client, sess *session.Session, notes *notify.Center, opts ...Option) *Controller {
	c := &Controller{
		api:      apiClient,
		sess:     sess,
		notes:    notes,
		log:      diag.Discard(),
		esc:      render.TerminalText,
		screen:   ScreenLogin,
		board:    render.NewBoard(nil, nil),
		inflight: map[string]bool{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot is a consistent copy of the controller state for drawing.
type Snapshot struct {
	Screen   Screen
	Username string
	LoggedIn bool
	Items    []model.Item
	Board    render.Board
	// Loaded is false until the first successful list fetch.
	Loaded bool
	// Query is the active name filter, empty for the full list.
	Query string
}

func (c *Controller) Snapshot() Snapshot {
	st, ok := c.sess.Current()
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Screen:   c.screen,
		Username: st.Username,
		LoggedIn: ok,
		Items:    append([]model.Item(nil), c.items...),
		Board:    c.board,
		Loaded:   c.loaded,
		Query:    c.query,
	}
}

func (c *Controller) Screen() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen
}

func (c *Controller) Notifier() *notify.Center { return c.notes }

func (c *Controller) setScreen(s Screen) {
	c.mu.Lock()
	c.screen = s
	c.mu.Unlock()
}

// ShowLoginForm switches to the login form. It is a no-op while logged in.
func (c *Controller) ShowLoginForm() bool {
	if c.sess.LoggedIn() {
		return false
	}
	c.setScreen(ScreenLogin)
	return true
}

// ShowSignupForm switches to the signup form. It is a no-op while logged in.
func (c *Controller) ShowSignupForm() bool {
	if c.sess.LoggedIn() {
		return false
	}
	c.setScreen(ScreenSignup)
	return true
}

// begin marks action as running; the returned func clears it.
func (c *Controller) begin(action string) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[action] {
		return nil, fmt.Errorf("%s: %w", action, ErrInFlight)
	}
	c.inflight[action] = true
	return func() {
		c.mu.Lock()
		delete(c.inflight, action)
		c.mu.Unlock()
	}, nil
}

// report turns a failed call into a notification: backend rejections get
// failedPrefix + (detail or fallback), everything else gets the generic text.
func (c *Controller) report(op string, err error, failedPrefix, fallback, generic string) {
	c.log.Errorf("%s: %v", op, err)
	var ae *api.Error
	if !errors.As(err, &ae) {
		c.notes.Show(generic, notify.KindError)
		return
	}
	switch {
	case failedPrefix == "":
		c.notes.Show(fallback, notify.KindError)
	case ae.NotJSON:
		// An unreadable body is handled like a network failure.
		c.notes.Show(generic, notify.KindError)
	default:
		detail := api.DetailOf(err)
		if detail == "" {
			detail = fallback
		}
		c.notes.Show(failedPrefix+detail, notify.KindError)
	}
}

// RestoreSession runs once at startup: a complete persisted session opens the item
// screen and reloads the list; anything else shows the login screen.
func (c *Controller) RestoreSession(ctx context.Context) bool {
	st, ok, err := c.sess.Restore(ctx)
	if err != nil {
		c.log.Warnf("restore session: %v", err)
	}
	if !ok {
		c.setScreen(ScreenLogin)
		return false
	}
	c.log.Infof("restored session for %s", st.Username)
	c.setScreen(ScreenItems)
	_ = c.ListItems(ctx)
	return true
}

// Login exchanges credentials for a token. On success the session is stored, the item
// screen is shown and the list is reloaded once.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	done, err := c.begin("login")
	if err != nil {
		return err
	}
	tok, err := c.api.Login(ctx, username, password)
	if err != nil {
		done()
		c.report("login", err, MsgLoginFailed, MsgLoginFallback, MsgLoginError)
		return err
	}
	if err := c.sess.Set(ctx, username, tok.AccessToken); err != nil {
		done()
		_ = c.sess.Clear(ctx)
		c.log.Errorf("login: %v", err)
		c.notes.Show(MsgLoginError, notify.KindError)
		return err
	}
	done()

	c.notes.Show(MsgLoginOK, notify.KindSuccess)
	c.setScreen(ScreenItems)
	_ = c.ListItems(ctx)
	return nil
}

// Signup registers a user and returns to the login form. It never logs in.
// A nil error tells the host to clear the signup fields.
func (c *Controller) Signup(ctx context.Context, username, password string) error {
	done, err := c.begin("signup")
	if err != nil {
		return err
	}
	defer done()

	if err := c.api.Signup(ctx, username, password); err != nil {
		c.report("signup", err, MsgSignupFailed, MsgGenericFallback, MsgSignupError)
		return err
	}
	c.notes.Show(MsgSignupOK, notify.KindSuccess)
	c.setScreen(ScreenLogin)
	return nil
}

// Logout clears the session everywhere. It makes no request and always ends on the
// login screen, even when already logged out.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.sess.Clear(ctx); err != nil {
		c.log.Errorf("logout: %v", err)
	}
	c.setScreen(ScreenLogin)
	c.notes.Show(MsgLogout, notify.KindInfo)
}

func (c *Controller) nextListSeq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listSeq++
	return c.listSeq
}

// applyItems installs a fetched list unless a later-issued fetch already landed.
func (c *Controller) applyItems(seq uint64, items []model.Item, query string) bool {
	board := render.NewBoard(items, c.esc)
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq <= c.listApplied {
		return false
	}
	c.listApplied = seq
	c.items = append([]model.Item(nil), items...)
	c.board = board
	c.loaded = true
	c.query = query
	return true
}

// ListItems fetches the full list and replaces the board. On failure the current board
// is kept.
func (c *Controller) ListItems(ctx context.Context) error {
	seq := c.nextListSeq()
	items, err := c.api.ListItems(ctx, c.sess.Token())
	if err != nil {
		c.report("list items", err, "", MsgListFailed, MsgListError)
		return err
	}
	if !c.applyItems(seq, items, "") {
		c.log.Infof("list items: dropped stale response #%d", seq)
	}
	return nil
}

// SearchItems replaces the board with items whose name contains name.
func (c *Controller) SearchItems(ctx context.Context, name string) error {
	seq := c.nextListSeq()
	items, err := c.api.SearchItems(ctx, c.sess.Token(), name)
	if err != nil {
		c.report("search items", err, MsgSearchFailed, MsgGenericFallback, MsgSearchError)
		return err
	}
	if !c.applyItems(seq, items, name) {
		c.log.Infof("search items: dropped stale response #%d", seq)
	}
	return nil
}

// ShowItem fetches one item. The board is not touched.
func (c *Controller) ShowItem(ctx context.Context, id int) (model.Item, error) {
	it, err := c.api.GetItem(ctx, c.sess.Token(), id)
	if err != nil {
		c.report("get item", err, MsgShowFailed, MsgGenericFallback, MsgShowError)
		return model.Item{}, err
	}
	return it, nil
}

// AddItem creates an item from raw form input. priceInput goes through ParsePrice; an
// unparsable value is sent as null. A nil error tells the host to clear the item fields.
func (c *Controller) AddItem(ctx context.Context, name, description, priceInput string) error {
	done, err := c.begin("add")
	if err != nil {
		return err
	}
	in := model.NewItem{Name: name, Description: description, Price: ParsePrice(priceInput)}
	_, err = c.api.CreateItem(ctx, c.sess.Token(), in)
	done()
	if err != nil {
		c.report("add item", err, MsgAddFailed, MsgGenericFallback, MsgAddError)
		return err
	}
	c.notes.Show(MsgAddOK, notify.KindSuccess)
	_ = c.ListItems(ctx)
	return nil
}

// UpdateItem applies a partial update and reloads the list.
func (c *Controller) UpdateItem(ctx context.Context, id int, upd model.ItemUpdate) error {
	done, err := c.begin("update:" + strconv.Itoa(id))
	if err != nil {
		return err
	}
	_, err = c.api.UpdateItem(ctx, c.sess.Token(), id, upd)
	done()
	if err != nil {
		c.report("update item", err, MsgUpdateFailed, MsgGenericFallback, MsgUpdateError)
		return err
	}
	c.notes.Show(MsgUpdateOK, notify.KindSuccess)
	_ = c.ListItems(ctx)
	return nil
}

// DeleteItem asks confirm first; a declined (or nil) confirmer sends nothing and returns
// ErrDeclined.
func (c *Controller) DeleteItem(ctx context.Context, id int, confirm Confirmer) error {
	if confirm == nil || !confirm.Confirm(ctx, MsgDeleteConfirm) {
		return ErrDeclined
	}
	done, err := c.begin("delete:" + strconv.Itoa(id))
	if err != nil {
		return err
	}
	err = c.api.DeleteItem(ctx, c.sess.Token(), id)
	done()
	if err != nil {
		c.report("delete item", err, MsgDeleteFailed, MsgGenericFallback, MsgDeleteError)
		return err
	}
	c.notes.Show(MsgDeleteOK, notify.KindSuccess)
	_ = c.ListItems(ctx)
	return nil
}
