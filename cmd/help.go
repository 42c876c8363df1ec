package cmd

// commandDoc is the help text of one command
type commandDoc struct {
	Use     string
	Aliases []string
	Short   string
	Long    string
	Example string
}

// docs is the help table for every tome command, keyed by command name
var docs = map[string]commandDoc{
	"tome": {
		Use:   "tome",
		Short: "A password manager that keeps credentials in one encrypted file",
		Long: `tome stores account passwords (domain, user@domain or a nickname) in a single
file encrypted under a master password.

The store is encrypted with AES-256-CBC using a key derived from the master
password with PBKDF2-HMAC-SHA512. Salt and IV are regenerated on every write.`,
		Example: `  tome set foo@gmail.com              # Prompt for a password
  tome generate reddit.com            # Generate a random password
  tome get youtube                    # Show matching passwords
  tome copy news.ycombinator.com      # Copy a password to the clipboard`,
	},
	"set": {
		Use:     "set [user@]<domain> [password]",
		Aliases: []string{"s"},
		Short:   "Create or update the password for an account",
		Long: `Create or update the password for an account. The user is optional.
If you do not specify a password, you will be prompted for one.
The store is created on first use.`,
		Example: `  tome set gmail.com
  tome set gmail.com p4ssw0rd
  tome set foo@gmail.com
  tome set foo@gmail.com p4ssw0rd`,
	},
	"get": {
		Use:     "get <pattern>",
		Aliases: []string{"g", "show"},
		Short:   "Show the passwords for all accounts matching the pattern",
		Long: `Show the passwords for all accounts matching the pattern.
An account whose name equals the pattern (ignoring case) is shown alone.
Otherwise every account containing the pattern is shown. The pattern is a
regular expression; patterns that are not valid expressions match literally.`,
		Example: `  tome get gmail
  tome get foo@
  tome get foo@gmail.com`,
	},
	"delete": {
		Use:     "delete [user@]<domain>",
		Aliases: []string{"del", "d", "rm", "remove"},
		Short:   "Delete the password for an account",
		Example: `  tome delete gmail.com
  tome delete foo@gmail.com`,
	},
	"generate": {
		Use:     "generate [user@]<domain>",
		Aliases: []string{"gen"},
		Short:   "Generate a random password for an account",
		Long: `Generate a random password for an account. The user is optional.
Use --words to generate a diceware passphrase instead.`,
		Example: `  tome generate gmail.com
  tome generate foo@gmail.com
  tome generate --words 6 bank.com`,
	},
	"copy": {
		Use:     "copy <pattern>",
		Aliases: []string{"cp"},
		Short:   "Copy the password for the account matching the pattern",
		Long: `Copy the password for the account matching the pattern.
If more than one account matches the pattern, nothing is copied.
Matching works as in 'tome get'.`,
		Example: `  tome copy gmail
  tome copy foo@
  tome copy foo@gmail.com`,
	},
	"list": {
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show all stored accounts and passwords",
		Example: `  tome list`,
	},
	"rename": {
		Use:     "rename <old> <new>",
		Aliases: []string{"ren", "rn"},
		Short:   "Rename the account information stored",
		Example: `  tome rename gmail.com foo@gmail.com
  tome rename foo@gmail.com bar@gmail.com`,
	},
	"passwd": {
		Use:   "passwd",
		Short: "Change the master password",
		Long: `Change the master password. Requires the current and the new password.
Re-encrypts the store with the new password; the key stretch is unchanged.`,
		Example: `  tome passwd`,
	},
	"status": {
		Use:   "status",
		Short: "Show store details",
		Long: `Show store details: location, size, format version, key stretch,
timestamps, keyring and git status.

Does not require the master password.`,
		Example: `  tome status`,
	},
	"keyring": {
		Use:   "keyring <save|delete|status>",
		Short: "Manage the master password in the OS keyring",
		Long: `Manage the master password in the OS keyring.

Once saved, set 'keyring: true' in the config file (or TOME_KEYRING=true)
to use it instead of prompting.`,
		Example: `  tome keyring save
  tome keyring status
  tome keyring delete`,
	},
	"version": {
		Use:     "version",
		Short:   "Show the version of tome",
		Example: `  tome version`,
	},
}
