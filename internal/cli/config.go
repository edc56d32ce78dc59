package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dkjgA893274/fastapi-freamarket/internal/api"
	"github.com/dkjgA893274/fastapi-freamarket/internal/store"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the local configuration",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigSetServerCmd(app))
	cmd.AddCommand(newConfigSetCmd(app))
	return cmd
}

type configView struct {
	Server         string           `json:"server"`
	ConfigPath     string           `json:"configPath"`
	StatePath      string           `json:"statePath"`
	TimeoutSeconds int              `json:"timeoutSeconds"`
	TUI            *store.TUIConfig `json:"tui,omitempty"`
}

func (c configView) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "server:  %s\nconfig:  %s\nstate:   %s\ntimeout: %ds\n", c.Server, c.ConfigPath, c.StatePath, c.TimeoutSeconds)
	if err != nil || c.TUI == nil {
		return err
	}
	if c.TUI.Theme != "" {
		if _, err := fmt.Fprintf(w, "theme:   %s\n", c.TUI.Theme); err != nil {
			return err
		}
	}
	if c.TUI.Markdown != nil {
		_, err = fmt.Fprintf(w, "markdown: %t\n", *c.TUI.Markdown)
	}
	return err
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			server, err := store.ResolveServer(app.Server, cfg)
			if err != nil {
				return writeErr(cmd, err)
			}
			cfgPath, err := store.ConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			statePath, err := store.StatePath()
			if err != nil {
				return writeErr(cmd, err)
			}
			timeout := int(api.DefaultTimeout.Seconds())
			if cfg.TimeoutSeconds > 0 {
				timeout = cfg.TimeoutSeconds
			}
			return writeOut(cmd, app, envelope{Data: configView{
				Server:         server,
				ConfigPath:     cfgPath,
				StatePath:      statePath,
				TimeoutSeconds: timeout,
				TUI:            cfg.TUI,
			}})
		},
	}
}

func newConfigSetServerCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set-server <url>",
		Short: "Remember the backend base URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := store.NormalizeServer(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg.Server = server
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, envelope{Data: map[string]any{"server": server}})
		},
	}
}

// newConfigSetCmd covers the remaining scalar preferences.
func newConfigSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set timeout, tui.theme or tui.markdown",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := strings.TrimSpace(args[0]), strings.TrimSpace(args[1])
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			if cfg.TUI == nil {
				cfg.TUI = &store.TUIConfig{}
			}

			switch key {
			case "timeout":
				n, err := strconv.Atoi(value)
				if err != nil || n < 0 {
					return writeErr(cmd, errInvalidArg("timeout", value))
				}
				cfg.TimeoutSeconds = n
			case "tui.theme":
				switch value {
				case "", "auto":
					cfg.TUI.Theme = ""
				case "light", "dark":
					cfg.TUI.Theme = value
				default:
					return writeErr(cmd, errInvalidArg("tui.theme", value))
				}
			case "tui.markdown":
				b, err := strconv.ParseBool(value)
				if err != nil {
					return writeErr(cmd, errInvalidArg("tui.markdown", value))
				}
				cfg.TUI.Markdown = &b
			default:
				return writeErr(cmd, errInvalidArg("config key", key))
			}

			if *cfg.TUI == (store.TUIConfig{}) {
				cfg.TUI = nil
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, envelope{Data: map[string]any{key: value}})
		},
	}
}
