package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

// usernameArg takes the username from the positional argument or --username.
func usernameArg(args []string, flag string) (string, error) {
	u := strings.TrimSpace(flag)
	if len(args) > 0 {
		u = strings.TrimSpace(args[0])
	}
	if u == "" {
		return "", errors.New("missing username")
	}
	return u, nil
}

func newLoginCmd(app *App) *cobra.Command {
	var username string
	var password string

	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and remember the session for this server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := usernameArg(args, username)
			if err != nil {
				return writeErr(cmd, err)
			}
			pw, err := readPassword(cmd, password)
			if err != nil {
				return writeErr(cmd, err)
			}

			rt, err := openRuntime(cmd, app, true)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close()

			if err := rt.ctl.Login(cmd.Context(), u, pw); err != nil {
				return reportedError{err: err}
			}
			return writeOut(cmd, app, envelope{Data: userInfo{Username: u, Server: rt.server, LoggedIn: true}})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Username (or pass it as the argument)")
	cmd.Flags().StringVar(&password, "password", "", "Password (default: FREAMARKET_PASSWORD, then prompt)")
	return cmd
}

func newSignupCmd(app *App) *cobra.Command {
	var username string
	var password string

	cmd := &cobra.Command{
		Use:   "signup [username]",
		Short: "Register a new user (does not log in)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := usernameArg(args, username)
			if err != nil {
				return writeErr(cmd, err)
			}
			pw, err := readPassword(cmd, password)
			if err != nil {
				return writeErr(cmd, err)
			}

			rt, err := openRuntime(cmd, app, true)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close()

			if err := rt.ctl.Signup(cmd.Context(), u, pw); err != nil {
				return reportedError{err: err}
			}
			return writeOut(cmd, app, envelope{
				Data:  userInfo{Username: u, Server: rt.server},
				Hints: []string{"freamarket login " + u},
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Username (or pass it as the argument)")
	cmd.Flags().StringVar(&password, "password", "", "Password (default: FREAMARKET_PASSWORD, then prompt)")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session for this server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd, app, true)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close()

			rt.ctl.Logout(cmd.Context())
			return writeOut(cmd, app, envelope{Data: userInfo{Server: rt.server}})
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the remembered session for this server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd, app, false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close()

			st, ok := rt.restore(cmd)
			if !ok {
				return writeErr(cmd, errNotLoggedIn(rt.server))
			}
			return writeOut(cmd, app, envelope{Data: userInfo{Username: st.Username, Server: rt.server, LoggedIn: true}})
		},
	}
}
