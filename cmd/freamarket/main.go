package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dkjgA893274/fastapi-freamarket/internal/cli"
)

func isItemID(s string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil && n > 0
}

func rewriteDirectItemLookupArgs(argv []string) []string {
	// `freamarket <id>` works like `freamarket items show <id>`.
	//
	// Cobra treats the first non-flag token as a subcommand, so argv is rewritten before parsing.
	// Persistent flags may come first (`freamarket --server ... 42`), so look for the first
	// positional token, not just argv[1].
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without consuming a value so the id is never swallowed.
	valueFlags := map[string]bool{
		"--server": true,
		"--format": true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isItemID(argv[i+1]) {
				out := make([]string, 0, len(argv)+2)
				out = append(out, argv[:i+1]...)
				out = append(out, "items", "show")
				out = append(out, argv[i+1:]...)
				return out
			}
			return argv
		}

		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}

		if isItemID(a) {
			out := make([]string, 0, len(argv)+2)
			out = append(out, argv[:i]...)
			out = append(out, "items", "show")
			out = append(out, argv[i:]...)
			return out
		}
		return argv
	}

	return argv
}

func main() {
	os.Args = rewriteDirectItemLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
