package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schmich/tome/internal/config"
	"github.com/schmich/tome/internal/core"
	"github.com/schmich/tome/internal/crypto"
	"github.com/schmich/tome/internal/keyring"
)

var ErrNoVaultID = errors.New("store has no vault id")

func newKeyringCommand(app *App) *cobra.Command {
	cmd := newCommand("keyring")
	cmd.Args = cobra.NoArgs

	save := &cobra.Command{
		Use:   "save",
		Short: "Save the master password to the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vaultID, err := app.vaultID()
			if err != nil {
				return err
			}

			master := config.PasswordFromEnv()
			if master == nil {
				master, err = app.prompter.Password("Master password: ")
				if err != nil {
					return err
				}
			}
			defer crypto.ClearBytes(master)

			// Only a password that opens the store is worth saving
			t, err := app.openWith(master)
			if err != nil {
				return err
			}
			t.Close()

			if err := keyring.SavePassword(vaultID, string(master)); err != nil {
				return fmt.Errorf("failed to save to keyring: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password saved to keyring.")
			return nil
		},
	}

	del := &cobra.Command{
		Use:     "delete",
		Aliases: []string{"rm", "forget"},
		Short:   "Remove the master password from the OS keyring",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vaultID, err := app.vaultID()
			if err != nil {
				return err
			}

			deleted, err := keyring.DeletePassword(vaultID)
			if err != nil {
				return fmt.Errorf("failed to delete from keyring: %w", err)
			}
			if !deleted {
				fmt.Fprintln(cmd.OutOrStdout(), "No password stored in keyring.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password removed from keyring.")
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show whether the master password is in the OS keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vaultID, err := app.vaultID()
			if err != nil {
				return err
			}
			if keyring.HasPassword(vaultID) {
				fmt.Fprintln(cmd.OutOrStdout(), "Password: stored in keyring")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Password: not stored")
			}
			return nil
		},
	}

	cmd.AddCommand(save, del, status)
	return cmd
}

// vaultID returns the keyring account name of the configured store
func (a *App) vaultID() (string, error) {
	info, err := core.Inspect(a.cfg.File)
	if err != nil {
		return "", err
	}
	if info.VaultID == "" {
		return "", ErrNoVaultID
	}
	return info.VaultID, nil
}
