package cmd

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var ErrClipboard = errors.New("failed to copy password to clipboard")

func newCopyCommand(app *App) *cobra.Command {
	cmd := newCommand("copy")
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

		switch len(matches) {
		case 0:
			return noMatchError(t, pattern)
		case 1:
		default:
			ids := make([]string, 0, len(matches))
			for id := range matches {
				ids = append(ids, id)
			}
			slices.Sort(ids)
			return fmt.Errorf("found multiple matches for %s, did you mean one of these?\n  %s", pattern, strings.Join(ids, "\n  "))
		}

		for id, password := range matches {
			if err := app.clipboard.WriteAll(password); err != nil {
				return fmt.Errorf("%w: %w", ErrClipboard, err)
			}
			// Some clipboard backends accept a write and drop it
			if got, err := app.clipboard.ReadAll(); err != nil || got != password {
				return ErrClipboard
			}
			app.log.Debug().Str("id", id).Msg("password copied")
			fmt.Fprintf(cmd.OutOrStdout(), "Password for %s copied to clipboard.\n", id)
		}
		return nil
	}
	return cmd
}
