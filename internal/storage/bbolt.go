package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

const (
	// FileVersion is the only envelope version this build reads or writes
	FileVersion = 1

	FilePermSecure = 0600 // File: owner rw only
	lockTimeout    = 5 * time.Second
)

// EnvelopeBucket holds every envelope field
var EnvelopeBucket = []byte("envelope")

// Envelope keys
var (
	KeyVersion  = []byte("version")
	KeySalt     = []byte("salt")
	KeyIV       = []byte("iv")
	KeyStretch  = []byte("stretch")
	KeyStore    = []byte("store")
	KeyVaultID  = []byte("vault_id")
	KeyCreated  = []byte("created")
	KeyModified = []byte("modified")
)

var (
	// ErrNotExist reports a missing or zero-length store file
	ErrNotExist = errors.New("store does not exist")

	ErrVersionTooNew = errors.New("store version is newer than supported")
	ErrVersionTooOld = errors.New("store version is older than supported")
	ErrLocked        = errors.New("store is locked by another process")
)

// FormatError reports a malformed envelope
type FormatError struct {
	Field string
	Msg   string
	Err   error
}

func (e *FormatError) Error() string {
	return e.Msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func invalidField(field, name string) *FormatError {
	return &FormatError{
		Field: field,
		Msg:   fmt.Sprintf("the tome database is invalid (missing or invalid %s)", name),
	}
}

// Envelope is the persisted top-level structure of a store file.
// Salt, IV and Store change on every save; Version and Stretch never do.
type Envelope struct {
	Version  int
	Salt     []byte
	IV       []byte
	Stretch  int
	Store    []byte
	VaultID  string
	Created  time.Time
	Modified time.Time
}

// Load reads and validates the envelope at path.
// It returns ErrNotExist if the file is absent or empty.
func Load(path string) (*Envelope, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat store: %w", err)
	}
	if info.Size() == 0 {
		return nil, ErrNotExist
	}
	if info.IsDir() {
		return nil, &FormatError{Msg: fmt.Sprintf("the tome database %s is a directory", path)}
	}

	db, err := bolt.Open(path, FilePermSecure, &bolt.Options{ReadOnly: true, Timeout: lockTimeout})
	if err != nil {
		switch {
		case errors.Is(err, berrors.ErrTimeout):
			return nil, ErrLocked
		case errors.Is(err, os.ErrPermission):
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		return nil, &FormatError{Msg: "the tome database is not a valid store file", Err: err}
	}
	defer db.Close()

	var env *Envelope
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(EnvelopeBucket)
		if b == nil {
			return &FormatError{Field: "envelope", Msg: "the tome database is invalid (missing envelope)"}
		}
		var err error
		env, err = readEnvelope(b)
		return err
	})
	if err != nil {
		return nil, err
	}

	return env, nil
}

// readEnvelope decodes and validates bucket contents.
// Values are copied since they are only valid during the transaction.
func readEnvelope(b *bolt.Bucket) (*Envelope, error) {
	env := &Envelope{}

	version, ok := getUint32(b, KeyVersion)
	if !ok {
		return nil, invalidField("version", "version")
	}
	env.Version = int(version)
	if env.Version > FileVersion {
		return nil, &FormatError{
			Field: "version",
			Msg:   fmt.Sprintf("the tome database comes from a newer version of tome (v%d > v%d), try updating tome", env.Version, FileVersion),
			Err:   ErrVersionTooNew,
		}
	}
	if env.Version < FileVersion {
		return nil, &FormatError{
			Field: "version",
			Msg:   fmt.Sprintf("the tome database is incompatible with this version of tome (v%d < v%d)", env.Version, FileVersion),
			Err:   ErrVersionTooOld,
		}
	}

	if env.Salt = getBytes(b, KeySalt); len(env.Salt) == 0 {
		return nil, invalidField("salt", "salt")
	}
	if env.IV = getBytes(b, KeyIV); len(env.IV) == 0 {
		return nil, invalidField("iv", "IV")
	}
	stretch, ok := getUint32(b, KeyStretch)
	if !ok {
		return nil, invalidField("stretch", "key stretch")
	}
	env.Stretch = int(stretch)
	if env.Store = getBytes(b, KeyStore); len(env.Store) == 0 {
		return nil, invalidField("store", "store")
	}

	// Supplemental fields are optional
	if id := b.Get(KeyVaultID); id != nil {
		env.VaultID = string(id)
	}
	if data := b.Get(KeyCreated); data != nil {
		if err := env.Created.UnmarshalBinary(data); err != nil {
			return nil, invalidField("created", "creation time")
		}
	}
	if data := b.Get(KeyModified); data != nil {
		if err := env.Modified.UnmarshalBinary(data); err != nil {
			return nil, invalidField("modified", "modification time")
		}
	}

	return env, nil
}

func getBytes(b *bolt.Bucket, key []byte) []byte {
	v := b.Get(key)
	if v == nil {
		return nil
	}
	return append([]byte(nil), v...)
}

func getUint32(b *bolt.Bucket, key []byte) (uint32, bool) {
	v := b.Get(key)
	if len(v) != 4 {
		return 0, false
	}
	return binary.BigEndian.Uint32(v), true
}

func putUint32(b *bolt.Bucket, key []byte, v uint32) error {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return b.Put(key, buf)
}

// Save replaces the file at path with env. A fresh database is written
// next to path and renamed over it, so the old contents never survive
// in free pages and readers see either the old or the new envelope.
func Save(path string, env *Envelope) error {
	if env.Version < 0 || env.Stretch < 0 {
		return fmt.Errorf("invalid envelope: negative version or stretch")
	}

	tmpPath := path + ".tmp"
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale temporary store: %w", err)
	}

	db, err := bolt.Open(tmpPath, FilePermSecure, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucket(EnvelopeBucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", EnvelopeBucket, err)
		}
		return writeEnvelope(b, env)
	})
	if err != nil {
		db.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write envelope: %w", err)
	}

	if err := db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close store: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace store: %w", err)
	}

	return nil
}

func writeEnvelope(b *bolt.Bucket, env *Envelope) error {
	if err := putUint32(b, KeyVersion, uint32(env.Version)); err != nil {
		return err
	}
	if err := b.Put(KeySalt, env.Salt); err != nil {
		return err
	}
	if err := b.Put(KeyIV, env.IV); err != nil {
		return err
	}
	if err := putUint32(b, KeyStretch, uint32(env.Stretch)); err != nil {
		return err
	}
	if err := b.Put(KeyStore, env.Store); err != nil {
		return err
	}
	if env.VaultID != "" {
		if err := b.Put(KeyVaultID, []byte(env.VaultID)); err != nil {
			return err
		}
	}
	for key, t := range map[string]time.Time{string(KeyCreated): env.Created, string(KeyModified): env.Modified} {
		if t.IsZero() {
			continue
		}
		data, err := t.MarshalBinary()
		if err != nil {
			return err
		}
		if err := b.Put([]byte(key), data); err != nil {
			return err
		}
	}
	return nil
}

// Exists reports whether path holds a store. A missing or empty file is
// not a store; a malformed one returns its format error.
func Exists(path string) (bool, error) {
	_, err := Load(path)
	if errors.Is(err, ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
