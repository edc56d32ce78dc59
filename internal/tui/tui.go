// Package tui is the interactive front end: a bubbletea program over client.Controller.
package tui

import (
	"github.com/dkjgA893274/fastapi-freamarket/internal/client"
	"github.com/dkjgA893274/fastapi-freamarket/internal/notify"
	"github.com/dkjgA893274/fastapi-freamarket/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	// Server is shown in the header.
	Server string
	// Theme is "light", "dark" or "auto"/"" (detect).
	Theme string
	// Markdown renders item descriptions with glamour in the detail view.
	Markdown bool
	// State is the UI state restored on launch. Nil starts fresh.
	State *store.TUIState
	// SaveState, if set, receives the UI state when the program exits.
	SaveState func(*store.TUIState) error
}

func Run(ctl *client.Controller, opts Options) error {
	applyThemePreference(opts.Theme)
	applyColorProfilePreference()

	p := tea.NewProgram(newAppModel(ctl, opts), tea.WithAltScreen())
	// Redraw on every show/expire. Send from a goroutine: Logout notifies from inside Update.
	unsubscribe := ctl.Notifier().Subscribe(func(notify.Event) {
		go p.Send(notesChangedMsg{})
	})
	defer unsubscribe()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if am, ok := final.(appModel); ok && opts.SaveState != nil {
		return opts.SaveState(am.uiState())
	}
	return nil
}
