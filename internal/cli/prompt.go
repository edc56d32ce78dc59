package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword takes the password from the flag, then FREAMARKET_PASSWORD, then a prompt.
// On a terminal the prompt does not echo; otherwise one line is read from stdin.
func readPassword(cmd *cobra.Command, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if v := os.Getenv("FREAMARKET_PASSWORD"); v != "" {
		return v, nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := readLine(in)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return line, nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// lineConfirmer asks on out and accepts y/yes from in. Anything else declines.
type lineConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (c lineConfirmer) Confirm(_ context.Context, prompt string) bool {
	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
	line, err := readLine(c.in)
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
