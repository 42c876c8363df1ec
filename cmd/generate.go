package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/schmich/tome/internal/core"
)

func newGenerateCommand(app *App) *cobra.Command {
	var (
		words   int
		length  int
		digits  int
		symbols int
	)

	cmd := newCommand("generate")
	cmd.Args = cobra.ExactArgs(1)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		id := args[0]

		// Flags left unset fall back to the configured generator settings
		if !cmd.Flags().Changed("length") {
			length = app.cfg.GenerateLength
		}
		if !cmd.Flags().Changed("digits") {
			digits = app.cfg.GenerateDigits
		}
		if !cmd.Flags().Changed("symbols") {
			symbols = app.cfg.GenerateSymbols
		}

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
		if words > 0 {
			password, err = core.GeneratePassphrase(words)
		} else {
			password, err = core.GeneratePassword(length, digits, symbols)
		}
		if err != nil {
			return err
		}

		created, err := t.Set(id, password)
		if err != nil {
			return err
		}

		verb := "Generated"
		if !created {
			verb = "Regenerated"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s password for %s:\n  %s\n", verb, id, password)
		return nil
	}

	cmd.Flags().IntVarP(&words, "words", "w", 0, "generate a diceware passphrase with this many words")
	cmd.Flags().IntVarP(&length, "length", "l", 0, "password length (default from config)")
	cmd.Flags().IntVar(&digits, "digits", 0, "number of digits (default from config)")
	cmd.Flags().IntVar(&symbols, "symbols", 0, "number of symbols (default from config)")
	cmd.MarkFlagsMutuallyExclusive("words", "length")
	return cmd
}
