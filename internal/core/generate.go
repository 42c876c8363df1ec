package core

import (
	"fmt"
	"strings"

	"github.com/sethvargo/go-diceware/diceware"
	"github.com/sethvargo/go-password/password"
)

// GeneratePassword returns a random password of the given length with at
// least the given number of digits and symbols
func GeneratePassword(length, digits, symbols int) (string, error) {
	p, err := password.Generate(length, digits, symbols, false, true)
	if err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return p, nil
}

// GeneratePassphrase returns a diceware passphrase of the given number of
// words joined by dashes
func GeneratePassphrase(words int) (string, error) {
	if words < 1 {
		return "", ErrInvalidArgument
	}
	list, err := diceware.Generate(words)
	if err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	return strings.Join(list, "-"), nil
}
