// Package config loads tome settings from defaults, an optional YAML
// config file ($XDG_CONFIG_HOME/tome/config.yaml), TOME_* environment
// variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/schmich/tome/internal/crypto"
)

const (
	EnvPrefix   = "TOME"
	EnvPassword = "TOME_PASSWORD"

	DefaultStretch        = crypto.DefaultStretch
	DefaultGenerateLength = 30
	DefaultGenerateDigits = 5
	DefaultGenerateSymbol = 5
)

// Config keys
const (
	KeyFile            = "file"
	KeyStretch         = "stretch"
	KeyKeyring         = "keyring"
	KeyVerbose         = "verbose"
	KeyGenerateLength  = "generate.length"
	KeyGenerateDigits  = "generate.digits"
	KeyGenerateSymbols = "generate.symbols"
	configName         = "config"
	defaultStoreName   = ".tome"
	minGeneratedLength = 8
)

// Config holds the resolved tome settings
type Config struct {
	File            string
	Stretch         int
	Keyring         bool
	Verbose         bool
	GenerateLength  int
	GenerateDigits  int
	GenerateSymbols int
}

// New returns a viper instance with tome defaults, environment binding
// and, when cfgFile is empty, the default config search path.
func New(cfgFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "tome"))
		}
		v.SetConfigType("yaml")
		v.SetConfigName(configName)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	file := defaultStoreName
	if home, err := os.UserHomeDir(); err == nil {
		file = filepath.Join(home, defaultStoreName)
	}
	v.SetDefault(KeyFile, file)
	v.SetDefault(KeyStretch, DefaultStretch)
	v.SetDefault(KeyKeyring, false)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyGenerateLength, DefaultGenerateLength)
	v.SetDefault(KeyGenerateDigits, DefaultGenerateDigits)
	v.SetDefault(KeyGenerateSymbols, DefaultGenerateSymbol)
}

// Load reads the config file if there is one and returns validated settings.
// A missing default config file is not an error; a missing explicit one is.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		File:            v.GetString(KeyFile),
		Stretch:         v.GetInt(KeyStretch),
		Keyring:         v.GetBool(KeyKeyring),
		Verbose:         v.GetBool(KeyVerbose),
		GenerateLength:  v.GetInt(KeyGenerateLength),
		GenerateDigits:  v.GetInt(KeyGenerateDigits),
		GenerateSymbols: v.GetInt(KeyGenerateSymbols),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings for values tome cannot work with
func (c *Config) Validate() error {
	if c.File == "" {
		return fmt.Errorf("%s must not be empty", KeyFile)
	}
	if c.Stretch < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", KeyStretch, c.Stretch)
	}
	if c.GenerateLength < minGeneratedLength {
		return fmt.Errorf("%s must be at least %d, got %d", KeyGenerateLength, minGeneratedLength, c.GenerateLength)
	}
	if c.GenerateDigits < 0 || c.GenerateSymbols < 0 || c.GenerateDigits+c.GenerateSymbols > c.GenerateLength {
		return fmt.Errorf("%s and %s must be non-negative and fit in %s", KeyGenerateDigits, KeyGenerateSymbols, KeyGenerateLength)
	}
	return nil
}

// PasswordFromEnv reads the master password from TOME_PASSWORD.
// Returns nil if unset.
func PasswordFromEnv() []byte {
	password := os.Getenv(EnvPassword)
	if password == "" {
		return nil
	}
	return []byte(password)
}
