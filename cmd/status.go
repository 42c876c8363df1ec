package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/schmich/tome/internal/core"
	"github.com/schmich/tome/internal/git"
	"github.com/schmich/tome/internal/keyring"
)

func newStatusCommand(app *App) *cobra.Command {
	cmd := newCommand("status")
	cmd.Args = cobra.NoArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		info, err := core.Inspect(app.cfg.File)
		if errors.Is(err, core.ErrNotInitialized) {
			fmt.Fprintf(out, "No tome database at %s\n", app.cfg.File)
			fmt.Fprintln(out, "Run 'tome set' or 'tome generate' to create one")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Store:    %s\n", info.Path)
		fmt.Fprintf(out, "Size:     %d bytes\n", info.Size)
		fmt.Fprintf(out, "Version:  %d\n", info.Version)
		fmt.Fprintf(out, "Stretch:  %d\n", info.Stretch)
		if info.VaultID != "" {
			fmt.Fprintf(out, "Vault ID: %s\n", info.VaultID)
		}
		if !info.Created.IsZero() {
			fmt.Fprintf(out, "Created:  %s\n", info.Created.Format(time.RFC3339))
		}
		if !info.Modified.IsZero() {
			fmt.Fprintf(out, "Modified: %s\n", info.Modified.Format(time.RFC3339))
		}

		if info.VaultID != "" && keyring.HasPassword(info.VaultID) {
			fmt.Fprintln(out, "Keyring:  password stored")
		} else {
			fmt.Fprintln(out, "Keyring:  not stored")
		}

		fmt.Fprint(out, git.FormatGitStatus(git.CheckStoreFile(info.Path)))
		return nil
	}
	return cmd
}
