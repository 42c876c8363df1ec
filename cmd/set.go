package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schmich/tome/internal/crypto"
)

func newSetCommand(app *App) *cobra.Command {
	cmd := newCommand("set")
	cmd.Args = cobra.RangeArgs(1, 2)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		id := args[0]

		t, err := app.connectOrCreate(cmd)
		if err != nil {
			return err
		}
		defer t.Close()

		if _, exists, err := t.Get(id); err != nil {
			return err
		} else if exists {
			if err := app.confirm(fmt.Sprintf("A password already exists for %s. Overwrite it? [y/n] ", id)); err != nil {
				return err
			}
		}

		var password string
		if len(args) == 2 {
			password = args[1]
		} else {
			p, err := promptNewPassword(app.prompter, cmd.ErrOrStderr(), "Password for "+id)
			if err != nil {
				return err
			}
			password = string(p)
			crypto.ClearBytes(p)
		}

		created, err := t.Set(id, password)
		if err != nil {
			return err
		}

		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "Created password for %s.\n", id)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Updated password for %s.\n", id)
		}
		return nil
	}
	return cmd
}
