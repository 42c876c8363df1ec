// Package core provides the tome session: an authenticated handle to one
// encrypted store file.
//
// Core operations include:
//   - Create/Open: obtain a Tome, verifying the master password
//   - Set/Get/Find/Delete/Rename/ForEach: credential operations
//   - ChangePassword: re-encrypt the store under a new master password
//   - Inspect: read unencrypted envelope details without a password
//
// Each operation is its own transaction: load the file, decrypt, operate,
// and for mutations re-encrypt under a fresh salt and IV and rewrite the
// file. Decrypted entries never outlive the call. The package never logs;
// failures are returned as ErrWrongPassword, ErrNotInitialized,
// ErrAlreadyExists, ErrInvalidArgument or *FormatError.
package core
