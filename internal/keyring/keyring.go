// Package keyring caches tome master passwords in the OS keyring, keyed
// by the store's vault ID.
package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "tome"

// SavePassword stores a master password in the OS keyring
func SavePassword(vaultID string, password string) error {
	return keyring.Set(serviceName, vaultID, password)
}

// GetPassword retrieves a master password from the OS keyring.
// The boolean is false when nothing is stored for vaultID.
func GetPassword(vaultID string) (string, bool, error) {
	password, err := keyring.Get(serviceName, vaultID)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return password, true, nil
}

// DeletePassword removes a master password from the OS keyring.
// The boolean is false when nothing was stored.
func DeletePassword(vaultID string) (bool, error) {
	err := keyring.Delete(serviceName, vaultID)
	if errors.Is(err, keyring.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// HasPassword checks if a master password is stored in the keyring
func HasPassword(vaultID string) bool {
	_, err := keyring.Get(serviceName, vaultID)
	return err == nil
}
