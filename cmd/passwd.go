package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schmich/tome/internal/core"
	"github.com/schmich/tome/internal/crypto"
	"github.com/schmich/tome/internal/keyring"
)

func newPasswdCommand(app *App) *cobra.Command {
	cmd := newCommand("passwd")
	cmd.Args = cobra.NoArgs
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		t, err := app.connect(cmd)
		if err != nil {
			return err
		}
		defer t.Close()

		newPassword, err := promptNewPassword(app.prompter, cmd.ErrOrStderr(), "New master password")
		if err != nil {
			return err
		}
		defer crypto.ClearBytes(newPassword)

		if err := t.ChangePassword(newPassword); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Master password changed.")

		// Keep a saved keyring entry in step with the store
		info, err := core.Inspect(t.Path())
		if err != nil || info.VaultID == "" || !keyring.HasPassword(info.VaultID) {
			return nil
		}
		if err := keyring.SavePassword(info.VaultID, string(newPassword)); err != nil {
			app.log.Warn().Err(err).Msg("failed to update keyring")
			return nil
		}
		fmt.Fprintln(out, "Keyring updated with new password.")
		return nil
	}
	return cmd
}
