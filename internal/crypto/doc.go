// Package crypto provides cryptographic operations for tome.
//
// Encryption uses AES-256-CBC with:
//   - 32-byte key derived from the master password via PBKDF2
//   - 16-byte random IV, regenerated on every save
//   - PKCS#7 padding, whose validation detects a wrong key
//
// Key derivation uses PBKDF2-HMAC-SHA512 with:
//   - 32-byte random salt (stored unencrypted, regenerated on every save)
//   - a per-store stretch (100,000 iterations by default)
//
// Plaintext length is hidden by Pad, which wraps the serialized store in
// a random amount of filler before encryption.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Call Encryptor.Destroy() when done with encryption operations
package crypto
