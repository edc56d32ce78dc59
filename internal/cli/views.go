package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dkjgA893274/fastapi-freamarket/internal/format"
	"github.com/dkjgA893274/fastapi-freamarket/internal/model"
	"github.com/dkjgA893274/fastapi-freamarket/internal/render"
)

// envelope is the shape of every command's output.
type envelope struct {
	Data  any      `json:"data"`
	Hints []string `json:"_hints,omitempty"`
}

func (e envelope) WriteText(w io.Writer) error {
	if t, ok := e.Data.(format.Texter); ok {
		if err := t.WriteText(w); err != nil {
			return err
		}
	} else if err := format.WriteJSON(w, e.Data, true); err != nil {
		return err
	}
	for _, h := range e.Hints {
		if _, err := fmt.Fprintln(w, "hint: "+h); err != nil {
			return err
		}
	}
	return nil
}

type userInfo struct {
	Username string `json:"username,omitempty"`
	Server   string `json:"server"`
	LoggedIn bool   `json:"loggedIn"`
}

func (u userInfo) WriteText(w io.Writer) error {
	var err error
	if u.LoggedIn {
		_, err = fmt.Fprintf(w, "%s @ %s\n", u.Username, u.Server)
	} else {
		_, err = fmt.Fprintf(w, "not logged in (%s)\n", u.Server)
	}
	return err
}

// itemList renders as cards in text mode and as a plain array otherwise.
type itemList []model.Item

func (l itemList) WriteText(w io.Writer) error {
	b := render.NewBoard(l, render.TerminalText)
	if b.Empty {
		_, err := fmt.Fprintln(w, b.Placeholder)
		return err
	}
	for _, c := range b.Cards {
		if err := writeCardText(w, c); err != nil {
			return err
		}
	}
	return nil
}

func writeCardText(w io.Writer, c render.Card) error {
	status := ""
	if c.Status == model.ItemStatusSoldOut {
		status = "  [SOLD OUT]"
	}
	if _, err := fmt.Fprintf(w, "#%d  %s  %s%s\n", c.ID, c.Name, c.Price, status); err != nil {
		return err
	}
	if d := strings.TrimSpace(c.Description); d != "" {
		for _, line := range strings.Split(d, "\n") {
			if _, err := fmt.Fprintf(w, "    %s\n", line); err != nil {
				return err
			}
		}
	}
	return nil
}

type itemDetail struct {
	model.Item
}

func (d itemDetail) WriteText(w io.Writer) error {
	c := render.NewCard(d.Item, render.TerminalText)
	if err := writeCardText(w, c); err != nil {
		return err
	}
	if d.CreatedAt != nil {
		if _, err := fmt.Fprintf(w, "    created %s\n", d.CreatedAt.Format("2006-01-02 15:04:05")); err != nil {
			return err
		}
	}
	if d.UpdatedAt != nil {
		if _, err := fmt.Fprintf(w, "    updated %s\n", d.UpdatedAt.Format("2006-01-02 15:04:05")); err != nil {
			return err
		}
	}
	return nil
}
