package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCommand(app *App) *cobra.Command {
	var force bool

	cmd := newCommand("delete")
	cmd.Args = cobra.ExactArgs(1)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		id := args[0]

		t, err := app.connect(cmd)
		if err != nil {
			return err
		}
		defer t.Close()

		if _, exists, err := t.Get(id); err != nil {
			return err
		} else if !exists {
			return noMatchError(t, id)
		}

		if !force {
			if err := app.confirm(fmt.Sprintf("Are you sure you want to delete the password for %s? [y/n] ", id)); err != nil {
				return err
			}
		}

		if _, err := t.Delete(id); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted password for %s.\n", id)
		return nil
	}

	cmd.Flags().BoolVarP(&force, "force", "y", false, "do not ask for confirmation")
	return cmd
}
