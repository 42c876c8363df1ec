package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize       = 32            // Salt size in bytes
	KeySize        = 32            // AES-256 key size
	IVSize         = aes.BlockSize // CBC initialization vector size
	DefaultStretch = 100000        // Default PBKDF2 iterations for new stores
)

var (
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrInvalidIV         = errors.New("invalid initialization vector")
	ErrInvalidStretch    = errors.New("key stretch must not be negative")

	// ErrDecrypt is returned when ciphertext does not decrypt cleanly under
	// the given key and IV. With no authentication tag this is the only
	// signal that the master password is wrong.
	ErrDecrypt = errors.New("decryption failed")
)

// DeriveKey derives a 256-bit key from a password using PBKDF2-HMAC-SHA512.
// A stretch of zero runs a single round.
func DeriveKey(password, salt []byte, stretch int) ([]byte, error) {
	if stretch < 0 {
		return nil, ErrInvalidStretch
	}
	return pbkdf2.Key(password, salt, stretch, KeySize, sha512.New), nil
}

// Encryptor encrypts and decrypts blobs with AES-256-CBC
type Encryptor struct {
	key []byte
}

// NewEncryptor creates a new encryptor with the given key.
// The encryptor takes ownership of key; Destroy wipes it.
func NewEncryptor(key []byte) (*Encryptor, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key size %d", len(key))
	}
	return &Encryptor{key: key}, nil
}

// Encrypt pads plaintext to the block size (PKCS#7) and encrypts it in CBC mode
func (e *Encryptor) Encrypt(plaintext, iv []byte) ([]byte, error) {
	if len(iv) != IVSize {
		return nil, ErrInvalidIV
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	n := IVSize - len(plaintext)%IVSize
	padded := make([]byte, len(plaintext)+n)
	copy(padded, plaintext)
	copy(padded[len(plaintext):], bytes.Repeat([]byte{byte(n)}, n))
	defer ClearBytes(padded)

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return ciphertext, nil
}

// Decrypt decrypts CBC ciphertext and strips its PKCS#7 padding.
// A wrong key or IV surfaces as ErrDecrypt.
func (e *Encryptor) Decrypt(ciphertext, iv []byte) ([]byte, error) {
	if len(iv) != IVSize {
		return nil, ErrInvalidIV
	}
	if len(ciphertext) == 0 || len(ciphertext)%IVSize != 0 {
		return nil, ErrInvalidCiphertext
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	n := int(plaintext[len(plaintext)-1])
	if n == 0 || n > IVSize {
		ClearBytes(plaintext)
		return nil, ErrDecrypt
	}
	for _, b := range plaintext[len(plaintext)-n:] {
		if int(b) != n {
			ClearBytes(plaintext)
			return nil, ErrDecrypt
		}
	}

	return plaintext[:len(plaintext)-n], nil
}

// Destroy clears the encryptor's key from memory
func (e *Encryptor) Destroy() {
	ClearBytes(e.key)
}

// NewSalt returns a fresh random KDF salt
func NewSalt() ([]byte, error) {
	return GenerateRandom(SaltSize)
}

// NewIV returns a fresh random CBC initialization vector
func NewIV() ([]byte, error) {
	return GenerateRandom(IVSize)
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	memguard.WipeBytes(b)
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
