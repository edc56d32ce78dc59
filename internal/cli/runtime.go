package cli

import (
	"fmt"
	"time"

	"github.com/dkjgA893274/fastapi-freamarket/internal/api"
	"github.com/dkjgA893274/fastapi-freamarket/internal/client"
	"github.com/dkjgA893274/fastapi-freamarket/internal/diag"
	"github.com/dkjgA893274/fastapi-freamarket/internal/notify"
	"github.com/dkjgA893274/fastapi-freamarket/internal/session"
	"github.com/dkjgA893274/fastapi-freamarket/internal/store"

	"github.com/spf13/cobra"
)

const defaultServerHint = store.DefaultServer

// runtime is everything one command needs to talk to the backend.
type runtime struct {
	cfg    *store.GlobalConfig
	server string
	origin string
	sess   *session.Session
	ctl    *client.Controller
	log    *diag.Logger

	unsubscribe func()
}

// openRuntime resolves the server (flag > env > config > default), scopes the session
// store to its origin and builds the controller. With printNotes, every notification is
// echoed to stderr as it is shown.
func openRuntime(cmd *cobra.Command, app *App, printNotes bool) (*runtime, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, err
	}
	server, err := store.ResolveServer(app.Server, cfg)
	if err != nil {
		return nil, err
	}
	origin, err := store.Origin(server)
	if err != nil {
		return nil, err
	}
	kv, err := store.OpenDefaultKV()
	if err != nil {
		return nil, err
	}

	logger := diag.FromEnv()
	timeout := api.DefaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	notes := notify.New()
	sess := session.New(kv.Scope(origin))
	ctl := client.New(api.New(server, api.WithTimeout(timeout)), sess, notes, client.WithLogger(logger))

	rt := &runtime{cfg: cfg, server: server, origin: origin, sess: sess, ctl: ctl, log: logger, unsubscribe: func() {}}
	if printNotes {
		errOut := cmd.ErrOrStderr()
		rt.unsubscribe = notes.Subscribe(func(ev notify.Event) {
			if ev.Type == notify.EventShown {
				fmt.Fprintln(errOut, ev.Notification.Text)
			}
		})
	}
	logger.Infof("command %q server=%s", cmd.CommandPath(), server)
	return rt, nil
}

// restore loads the persisted session without reloading the list.
func (rt *runtime) restore(cmd *cobra.Command) (session.State, bool) {
	st, ok, err := rt.sess.Restore(cmd.Context())
	if err != nil {
		rt.log.Warnf("restore session: %v", err)
	}
	return st, ok
}

func (rt *runtime) Close() {
	rt.unsubscribe()
	_ = rt.log.Close()
}
