package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dkjgA893274/fastapi-freamarket/internal/docs"

	"github.com/spf13/cobra"
)

type docTopic struct {
	Topic    string `json:"topic"`
	Markdown string `json:"markdown"`
}

func (d docTopic) WriteText(w io.Writer) error {
	_, err := io.WriteString(w, d.Markdown)
	return err
}

type docTopics struct {
	Topics []string `json:"topics"`
}

func (d docTopics) WriteText(w io.Writer) error {
	_, err := fmt.Fprintln(w, strings.Join(d.Topics, "\n"))
	return err
}

func newDocsCmd(app *App) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show long-form help (tui, session, output)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeOut(cmd, app, envelope{Data: docTopics{Topics: docs.Topics()}})
			}

			topic := args[0]
			body, ok := docs.Get(topic)
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown docs topic: %q (run `freamarket docs` to list topics)", topic))
			}
			if raw {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			return writeOut(cmd, app, envelope{Data: docTopic{Topic: strings.ToLower(strings.TrimSpace(topic)), Markdown: body}})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw markdown (no envelope)")

	return cmd
}
