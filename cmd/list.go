package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCommand(app *App) *cobra.Command {
	cmd := newCommand("list")
	cmd.Args = cobra.NoArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		t, err := app.connect(cmd)
		if err != nil {
			return err
		}
		defer t.Close()

		out := cmd.OutOrStdout()
		count := 0
		err = t.ForEach(func(id, password string) error {
			count++
			_, err := fmt.Fprintf(out, "%s: %s\n", id, password)
			return err
		})
		if err != nil {
			return err
		}

		if count == 0 {
			fmt.Fprintln(out, "No passwords stored.")
		}
		return nil
	}
	return cmd
}
