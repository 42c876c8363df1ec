// Package storage provides the on-disk envelope and the decrypted entry
// store for tome.
//
// A store file is a BBolt database with a single "envelope" bucket:
//   - version: format version, must equal FileVersion exactly
//   - salt, iv: key derivation salt and cipher IV, regenerated on every save
//   - stretch: PBKDF2 iterations, fixed when the store is created
//   - store: the encrypted, padded entry store
//   - vault_id, created, modified: unencrypted bookkeeping for status
//
// Saves never update a file in place. Each save writes a new database and
// renames it over the old one, which also leaves no stale ciphertext in
// BBolt free pages.
//
// Entries is the decrypted identifier to password mapping. It is
// serialized as YAML and lives only for the duration of one transaction.
package storage
