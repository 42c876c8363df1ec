package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/schmich/tome/internal/config"
	"github.com/schmich/tome/internal/core"
	"github.com/schmich/tome/internal/storage"
)

// Version is set at build time with -ldflags "-X github.com/schmich/tome/cmd.Version=..."
var Version = "dev"

// Clipboard is the system clipboard
type Clipboard interface {
	WriteAll(text string) error
	ReadAll() (string, error)
}

type systemClipboard struct{}

func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }
func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }

// App carries the state shared by all commands of one invocation
type App struct {
	cfgFile   string
	v         *viper.Viper
	cfg       *config.Config
	log       zerolog.Logger
	prompter  Prompter
	clipboard Clipboard
}

// Option customizes an App
type Option func(*App)

// WithPrompter replaces the terminal prompter
func WithPrompter(p Prompter) Option {
	return func(a *App) { a.prompter = p }
}

// WithClipboard replaces the system clipboard
func WithClipboard(c Clipboard) Option {
	return func(a *App) { a.clipboard = c }
}

// NewRootCommand builds the tome command tree
func NewRootCommand(opts ...Option) *cobra.Command {
	app := &App{
		log:       zerolog.Nop(),
		clipboard: systemClipboard{},
	}
	for _, opt := range opts {
		opt(app)
	}

	doc := docs["tome"]
	root := &cobra.Command{
		Use:           doc.Use,
		Short:         doc.Short,
		Long:          doc.Long,
		Example:       doc.Example,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.initialize(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/tome/config.yaml)")
	flags.StringP("file", "f", "", "path to the password store (default is $HOME/.tome)")
	flags.Int("stretch", 0, fmt.Sprintf("key stretch for new stores (default %d)", config.DefaultStretch))
	flags.Bool("keyring", false, "read the master password from the OS keyring")
	flags.Bool("verbose", false, "enable debug logging")

	root.AddCommand(
		newSetCommand(app),
		newGetCommand(app),
		newDeleteCommand(app),
		newGenerateCommand(app),
		newCopyCommand(app),
		newListCommand(app),
		newRenameCommand(app),
		newPasswdCommand(app),
		newStatusCommand(app),
		newKeyringCommand(app),
		newVersionCommand(app),
	)

	return root
}

// Execute runs the tome command tree with os.Args
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// newCommand creates a command from its entry in the help table
func newCommand(name string) *cobra.Command {
	doc := docs[name]
	return &cobra.Command{
		Use:     doc.Use,
		Aliases: doc.Aliases,
		Short:   doc.Short,
		Long:    doc.Long,
		Example: doc.Example,
	}
}

func (a *App) initialize(cmd *cobra.Command) error {
	a.v = config.New(a.cfgFile)

	bindings := map[string]string{
		config.KeyFile:    "file",
		config.KeyStretch: "stretch",
		config.KeyKeyring: "keyring",
		config.KeyVerbose: "verbose",
	}
	root := cmd.Root().PersistentFlags()
	for key, name := range bindings {
		if err := a.bindFlag(key, root.Lookup(name)); err != nil {
			return err
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log = newLogger(cmd.ErrOrStderr(), cfg.Verbose)
	a.log.Debug().
		Str("file", cfg.File).
		Str("config", a.v.ConfigFileUsed()).
		Int("stretch", cfg.Stretch).
		Bool("keyring", cfg.Keyring).
		Msg("configuration loaded")

	if a.prompter == nil {
		a.prompter = newTerminalPrompter(cmd.Context(), cmd.InOrStdin(), cmd.ErrOrStderr())
	}
	return nil
}

// bindFlag binds a flag only when it was given, so unset flags do not
// shadow the config file and environment
func (a *App) bindFlag(key string, flag *pflag.Flag) error {
	if flag == nil || !flag.Changed {
		return nil
	}
	if err := a.v.BindPFlag(key, flag); err != nil {
		return fmt.Errorf("failed to bind %s flag: %w", flag.Name, err)
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// ErrorMessage renders err for the user
func ErrorMessage(err error) string {
	var formatErr *storage.FormatError
	switch {
	case errors.Is(err, core.ErrNotInitialized):
		return "tome database does not exist.\nUse 'tome set' or 'tome generate' to create a password first."
	case errors.Is(err, core.ErrWrongPassword):
		return "incorrect master password."
	case errors.Is(err, storage.ErrVersionTooNew):
		return "the store was written by a newer version of tome; upgrade with 'go install github.com/schmich/tome@latest'."
	case errors.Is(err, storage.ErrLocked):
		return "the store is in use by another tome process."
	case errors.As(err, &formatErr):
		return fmt.Sprintf("the store file is damaged or not a tome database: %s", formatErr)
	case errors.Is(err, ErrAborted):
		return "aborted."
	case errors.Is(err, context.Canceled):
		return "interrupted."
	case errors.Is(err, os.ErrPermission):
		return fmt.Sprintf("permission denied: %s", err)
	default:
		return err.Error()
	}
}
