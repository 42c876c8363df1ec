package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/schmich/tome/internal/config"
	"github.com/schmich/tome/internal/core"
	"github.com/schmich/tome/internal/crypto"
	"github.com/schmich/tome/internal/keyring"
)

// connect opens the existing store, asking for the master password
func (a *App) connect(cmd *cobra.Command) (*core.Tome, error) {
	exists, err := core.Exists(a.cfg.File)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, core.ErrNotInitialized
	}
	return a.open(cmd)
}

// connectOrCreate opens the store, creating it under a new master
// password if it does not exist yet
func (a *App) connectOrCreate(cmd *cobra.Command) (*core.Tome, error) {
	exists, err := core.Exists(a.cfg.File)
	if err != nil {
		return nil, err
	}
	if exists {
		return a.open(cmd)
	}

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "Creating tome database at %s.\n", a.cfg.File)

	master := config.PasswordFromEnv()
	if master == nil {
		fmt.Fprintln(out, "Choose a master password. It protects every password in the store.")
		master, err = promptNewPassword(a.prompter, out, "Master password")
		if err != nil {
			return nil, err
		}
	}
	defer crypto.ClearBytes(master)

	start := time.Now()
	t, err := core.Create(a.cfg.File, master, a.cfg.Stretch)
	if err != nil {
		return nil, err
	}
	a.log.Debug().Str("file", a.cfg.File).Int("stretch", a.cfg.Stretch).Dur("took", time.Since(start)).Msg("store created")
	return t, nil
}

// open tries the master password from the environment, then the OS
// keyring, then the prompt
func (a *App) open(cmd *cobra.Command) (*core.Tome, error) {
	if master := config.PasswordFromEnv(); master != nil {
		defer crypto.ClearBytes(master)
		return a.openWith(master)
	}

	if a.cfg.Keyring {
		t, err := a.openFromKeyring()
		if t != nil || err != nil {
			return t, err
		}
	}

	for attempt := 1; ; attempt++ {
		master, err := a.prompter.Password("Master password: ")
		if err != nil {
			return nil, err
		}
		t, err := a.openWith(master)
		crypto.ClearBytes(master)
		if errors.Is(err, core.ErrWrongPassword) && attempt < maxPromptAttempts {
			fmt.Fprintln(cmd.ErrOrStderr(), "Incorrect master password.")
			continue
		}
		return t, err
	}
}

// openFromKeyring returns a nil handle and nil error when the keyring
// has no usable password, so the caller falls back to prompting
func (a *App) openFromKeyring() (*core.Tome, error) {
	info, err := core.Inspect(a.cfg.File)
	if err != nil {
		return nil, err
	}
	if info.VaultID == "" {
		a.log.Debug().Msg("store has no vault id, skipping keyring")
		return nil, nil
	}

	password, ok, err := keyring.GetPassword(info.VaultID)
	if err != nil {
		a.log.Warn().Err(err).Msg("keyring unavailable")
		return nil, nil
	}
	if !ok {
		a.log.Debug().Str("vault", info.VaultID).Msg("no password in keyring")
		return nil, nil
	}

	master := []byte(password)
	defer crypto.ClearBytes(master)
	t, err := a.openWith(master)
	if errors.Is(err, core.ErrWrongPassword) {
		a.log.Warn().Str("vault", info.VaultID).Msg("keyring password is stale, run 'tome keyring save' to update it")
		return nil, nil
	}
	return t, err
}

func (a *App) openWith(master []byte) (*core.Tome, error) {
	start := time.Now()
	t, err := core.Open(a.cfg.File, master)
	if err != nil {
		return nil, err
	}
	a.log.Debug().Str("file", a.cfg.File).Dur("took", time.Since(start)).Msg("store opened")
	return t, nil
}

// confirm asks a yes/no question; a negative answer yields ErrAborted
func (a *App) confirm(prompt string) error {
	ok, err := a.prompter.Confirm(prompt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAborted
	}
	return nil
}
