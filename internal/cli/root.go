package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/dkjgA893274/fastapi-freamarket/internal/format"
	"github.com/dkjgA893274/fastapi-freamarket/internal/store"
	"github.com/dkjgA893274/fastapi-freamarket/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	Server     string
	PrettyJSON bool
	Format     string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "freamarket",
		Short:         "Terminal client for the freamarket items API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  freamarket

  # Scriptable commands
  freamarket login alice
  freamarket items list --format text
  freamarket items add --name Pen --description "Blue ink" --price 150

  # Direct item lookup (shortcut for: freamarket items show <id>)
  freamarket 42
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !format.Valid(app.Format) {
				return writeErr(cmd, errInvalidArg("format", app.Format))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Server, "server", envOr("FREAMARKET_SERVER", ""), "Backend base URL (default: config file, then "+defaultServerHint+")")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("FREAMARKET_FORMAT", "json"), "Output format (json|edn|text)")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newSignupCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	rt, err := openRuntime(cmd, app, false)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer rt.Close()

	theme := envOr("FREAMARKET_TUI_THEME", "")
	markdown := true
	if t := rt.cfg.TUI; t != nil {
		if theme == "" {
			theme = t.Theme
		}
		if t.Markdown != nil {
			markdown = *t.Markdown
		}
	}

	// UI state is best effort; a broken file never blocks the TUI.
	state, err := store.LoadTUIState(rt.origin)
	if err != nil {
		rt.log.Warnf("load tui state: %v", err)
		state = nil
	}
	return tui.Run(rt.ctl, tui.Options{
		Server:   rt.server,
		Theme:    theme,
		Markdown: markdown,
		State:    state,
		SaveState: func(st *store.TUIState) error {
			if err := store.SaveTUIState(rt.origin, st); err != nil {
				rt.log.Warnf("save tui state: %v", err)
			}
			return nil
		},
	})
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return reportedError{err: err}
}
