package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRenameCommand(app *App) *cobra.Command {
	cmd := newCommand("rename")
	cmd.Args = cobra.ExactArgs(2)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		oldID, newID := args[0], args[1]

		t, err := app.connect(cmd)
		if err != nil {
			return err
		}
		defer t.Close()

		if _, exists, err := t.Get(oldID); err != nil {
			return err
		} else if !exists {
			return noMatchError(t, oldID)
		}

		if !strings.EqualFold(oldID, newID) {
			if _, exists, err := t.Get(newID); err != nil {
				return err
			} else if exists {
				if err := app.confirm(fmt.Sprintf("A password already exists for %s. Overwrite it? [y/n] ", newID)); err != nil {
					return err
				}
			}
		}

		if _, err := t.Rename(oldID, newID); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s.\n", oldID, newID)
		return nil
	}
	return cmd
}
