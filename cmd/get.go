package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schmich/tome/internal/core"
)

const maxSuggestions = 3

func newGetCommand(app *App) *cobra.Command {
	cmd := newCommand("get")
	cmd.Args = cobra.ExactArgs(1)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		pattern := args[0]

		t, err := app.connect(cmd)
		if err != nil {
			return err
		}
		defer t.Close()

		matches, err := t.Find(pattern)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return noMatchError(t, pattern)
		}

		printEntries(cmd.OutOrStdout(), matches)
		return nil
	}
	return cmd
}

// noMatchError reports a pattern with no matches, suggesting near misses
func noMatchError(t *core.Tome, pattern string) error {
	suggestions, err := t.Suggest(pattern, maxSuggestions)
	if err != nil || len(suggestions) == 0 {
		return fmt.Errorf("no password found for %s", pattern)
	}
	return fmt.Errorf("no password found for %s, did you mean %s?", pattern, strings.Join(suggestions, ", "))
}

func printEntries(w io.Writer, entries map[string]string) {
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		fmt.Fprintf(w, "%s: %s\n", id, entries[id])
	}
}
