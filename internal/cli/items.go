package cli

import (
	"errors"
	"strconv"
	"strings"

	"github.com/dkjgA893274/fastapi-freamarket/internal/client"
	"github.com/dkjgA893274/fastapi-freamarket/internal/model"
	"github.com/dkjgA893274/fastapi-freamarket/internal/render"

	"github.com/spf13/cobra"
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Item commands",
	}

	cmd.AddCommand(newItemsListCmd(app))
	cmd.AddCommand(newItemsShowCmd(app))
	cmd.AddCommand(newItemsSearchCmd(app))
	cmd.AddCommand(newItemsAddCmd(app))
	cmd.AddCommand(newItemsUpdateCmd(app))
	cmd.AddCommand(newItemsDeleteCmd(app))

	return cmd
}

func parseItemID(s string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id <= 0 {
		return 0, errInvalidArg("item id", s)
	}
	return id, nil
}

// openSession opens the runtime and restores the remembered session. Item commands
// still run when logged out; the backend decides what an anonymous caller may do.
func openSession(cmd *cobra.Command, app *App) (*runtime, error) {
	rt, err := openRuntime(cmd, app, true)
	if err != nil {
		return nil, err
	}
	rt.restore(cmd)
	return rt, nil
}

// errReloadFailed is returned when a change succeeded but the list that follows it did
// not load. The list failure has already been printed.
var errReloadFailed = errors.New("item list reload failed")

// writeReloaded prints the list refreshed after a change.
func writeReloaded(cmd *cobra.Command, app *App, rt *runtime) error {
	snap := rt.ctl.Snapshot()
	if !snap.Loaded {
		return reportedError{err: errReloadFailed}
	}
	return writeOut(cmd, app, envelope{Data: itemList(snap.Items)})
}

func newItemsListCmd(app *App) *cobra.Command {
	var html bool
	var markdown bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close()

			if err := rt.ctl.ListItems(cmd.Context()); err != nil {
				return reportedError{err: err}
			}
			items := rt.ctl.Snapshot().Items
			if html {
				return render.WriteHTML(cmd.OutOrStdout(), render.NewHTMLBoard(items, markdown))
			}
			return writeOut(cmd, app, envelope{Data: itemList(items)})
		},
	}
	cmd.Flags().BoolVar(&html, "html", false, "Write the item cards as an HTML fragment")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "With --html, render descriptions as markdown")
	return cmd
}

func newItemsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "show <item-id>",
		Short:   "Show one of your items",
		Aliases: []string{"get"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			rt, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close()

			it, err := rt.ctl.ShowItem(cmd.Context(), id)
			if err != nil {
				return reportedError{err: err}
			}
			return writeOut(cmd, app, envelope{Data: itemDetail{it}})
		},
	}
}

func newItemsSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search <name>",
		Short: "Find items whose name contains <name>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close()

			if err := rt.ctl.SearchItems(cmd.Context(), args[0]); err != nil {
				return reportedError{err: err}
			}
			return writeOut(cmd, app, envelope{Data: itemList(rt.ctl.Snapshot().Items)})
		},
	}
}

func newItemsAddCmd(app *App) *cobra.Command {
	var name string
	var description string
	var price string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an item and print the refreshed list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close()

			// Price is passed through as typed; unparsable input is sent as null.
			if err := rt.ctl.AddItem(cmd.Context(), name, description, price); err != nil {
				return reportedError{err: err}
			}
			return writeReloaded(cmd, app, rt)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Item name")
	cmd.Flags().StringVar(&description, "description", "", "Item description")
	cmd.Flags().StringVar(&price, "price", "", "Price in yen")
	return cmd
}

func newItemsUpdateCmd(app *App) *cobra.Command {
	var name string
	var description string
	var price string
	var status string

	cmd := &cobra.Command{
		Use:   "update <item-id>",
		Short: "Change fields of one of your items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			var upd model.ItemUpdate
			if cmd.Flags().Changed("name") {
				upd.Name = &name
			}
			if cmd.Flags().Changed("description") {
				upd.Description = &description
			}
			if cmd.Flags().Changed("price") {
				p := client.ParsePrice(price)
				if p == nil {
					return writeErr(cmd, errInvalidArg("price", price))
				}
				upd.Price = p
			}
			if cmd.Flags().Changed("status") {
				s, ok := model.ParseItemStatus(status)
				if !ok {
					return writeErr(cmd, errInvalidArg("status", status))
				}
				upd.Status = &s
			}
			if upd.IsEmpty() {
				return writeErr(cmd, errors.New("nothing to update; pass --name, --description, --price or --status"))
			}

			rt, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close()

			if err := rt.ctl.UpdateItem(cmd.Context(), id, upd); err != nil {
				return reportedError{err: err}
			}
			return writeReloaded(cmd, app, rt)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&price, "price", "", "New price in yen")
	cmd.Flags().StringVar(&status, "status", "", "ON_SALE or SOLD_OUT")
	return cmd
}

func newItemsDeleteCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <item-id>",
		Short: "Delete one of your items (asks for confirmation)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			rt, err := openSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer rt.Close()

			var confirm client.Confirmer = lineConfirmer{in: cmd.InOrStdin(), out: cmd.ErrOrStderr()}
			if yes {
				confirm = client.Always
			}
			err = rt.ctl.DeleteItem(cmd.Context(), id, confirm)
			switch {
			case errors.Is(err, client.ErrDeclined):
				return writeOut(cmd, app, envelope{Data: map[string]any{"deleted": false, "id": id}})
			case err != nil:
				return reportedError{err: err}
			}
			return writeOut(cmd, app, envelope{Data: map[string]any{"deleted": true, "id": id}})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
