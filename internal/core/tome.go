package core

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"
	"github.com/schmich/tome/internal/crypto"
	"github.com/schmich/tome/internal/storage"
)

var (
	ErrNotInitialized  = errors.New("tome database does not exist")
	ErrAlreadyExists   = errors.New("tome database already exists")
	ErrWrongPassword   = errors.New("incorrect master password")
	ErrInvalidArgument = storage.ErrInvalidArgument
	ErrUnreadable      = errors.New("serialized store does not read back")
)

// FormatError reports a malformed or incompatible store file
type FormatError = storage.FormatError

// Tome is an authenticated handle to one store file. Every operation
// reads the file, decrypts it, and (if it mutates) re-encrypts and
// rewrites it; no entries are kept in memory between calls.
type Tome struct {
	path   string
	master *memguard.Enclave
	cache  *keyCache
}

// keyCache remembers the key derived for the last salt seen, so reading
// back a file this handle just wrote skips the KDF.
type keyCache struct {
	salt    []byte
	stretch int
	key     *memguard.Enclave
}

func newTome(path string, master []byte) (*Tome, error) {
	if path == "" || len(master) == 0 {
		return nil, ErrInvalidArgument
	}
	// NewEnclave wipes its input, so hand it a copy
	buf := make([]byte, len(master))
	copy(buf, master)
	return &Tome{path: path, master: memguard.NewEnclave(buf)}, nil
}

// Create writes a new, empty store at path and returns a handle to it.
// It fails with ErrAlreadyExists if path already holds a store, even a
// malformed one.
func Create(path string, master []byte, stretch int) (*Tome, error) {
	if stretch < 0 {
		return nil, ErrInvalidArgument
	}
	t, err := newTome(path, master)
	if err != nil {
		return nil, err
	}

	_, err = storage.Load(path)
	switch {
	case err == nil:
		return nil, ErrAlreadyExists
	case errors.As(err, new(*storage.FormatError)):
		return nil, fmt.Errorf("%w: %w", ErrAlreadyExists, err)
	case !errors.Is(err, storage.ErrNotExist):
		return nil, err
	}

	now := time.Now()
	env := &storage.Envelope{
		Version: storage.FileVersion,
		Stretch: stretch,
		VaultID: uuid.NewString(),
		Created: now,
	}

	entries := storage.NewEntries()
	if err := t.save(env, entries); err != nil {
		return nil, err
	}

	return t, nil
}

// Open authenticates against the store at path by decrypting it once.
// A wrong master password yields ErrWrongPassword and no handle.
func Open(path string, master []byte) (*Tome, error) {
	t, err := newTome(path, master)
	if err != nil {
		return nil, err
	}

	if err := t.view(func(*storage.Entries) error { return nil }); err != nil {
		t.Close()
		return nil, err
	}

	return t, nil
}

// Exists reports whether path holds a store. Missing and empty files do
// not; a malformed file returns a *FormatError.
func Exists(path string) (bool, error) {
	if path == "" {
		return false, ErrInvalidArgument
	}
	return storage.Exists(path)
}

// Path returns the store file path
func (t *Tome) Path() string {
	return t.path
}

// Close drops the master password and cached key material
func (t *Tome) Close() {
	t.master = nil
	t.cache = nil
}

// Set stores password under id. Returns true if id was newly created.
func (t *Tome) Set(id, password string) (bool, error) {
	if id == "" || password == "" {
		return false, ErrInvalidArgument
	}

	var created bool
	err := t.update(func(entries *storage.Entries) (bool, error) {
		var err error
		created, err = entries.Set(id, password)
		return err == nil, err
	})
	return created, err
}

// Get returns the password stored under id
func (t *Tome) Get(id string) (string, bool, error) {
	if id == "" {
		return "", false, ErrInvalidArgument
	}

	var (
		password string
		ok       bool
	)
	err := t.view(func(entries *storage.Entries) error {
		var err error
		password, ok, err = entries.Get(id)
		return err
	})
	return password, ok, err
}

// Find returns every entry matching pattern, see storage.Entries.Find
func (t *Tome) Find(pattern string) (map[string]string, error) {
	if pattern == "" {
		return nil, ErrInvalidArgument
	}

	var matches map[string]string
	err := t.view(func(entries *storage.Entries) error {
		var err error
		matches, err = entries.Find(pattern)
		return err
	})
	return matches, err
}

// Delete removes id. Returns true if something was removed.
func (t *Tome) Delete(id string) (bool, error) {
	if id == "" {
		return false, ErrInvalidArgument
	}

	var deleted bool
	err := t.update(func(entries *storage.Entries) (bool, error) {
		var err error
		deleted, err = entries.Delete(id)
		return deleted, err
	})
	return deleted, err
}

// Rename moves the entry for oldID to newID, overwriting newID if it
// exists. Callers wanting confirmation must check newID first.
func (t *Tome) Rename(oldID, newID string) (bool, error) {
	if oldID == "" || newID == "" {
		return false, ErrInvalidArgument
	}

	var renamed bool
	err := t.update(func(entries *storage.Entries) (bool, error) {
		var err error
		renamed, err = entries.Rename(oldID, newID)
		return renamed, err
	})
	return renamed, err
}

// ForEach calls fn for every entry in identifier order, stopping at the
// first error fn returns
func (t *Tome) ForEach(fn func(id, password string) error) error {
	return t.view(func(entries *storage.Entries) error {
		for id, password := range entries.All() {
			if err := fn(id, password); err != nil {
				return err
			}
		}
		return nil
	})
}

// IDs returns all identifiers in sorted order
func (t *Tome) IDs() ([]string, error) {
	var ids []string
	err := t.view(func(entries *storage.Entries) error {
		ids = entries.IDs()
		return nil
	})
	return ids, err
}

// ChangePassword re-encrypts the store under a new master password.
// Stretch and vault ID are unchanged.
func (t *Tome) ChangePassword(newMaster []byte) error {
	if len(newMaster) == 0 {
		return ErrInvalidArgument
	}

	env, err := t.load()
	if err != nil {
		return err
	}
	entries, err := t.decrypt(env)
	if err != nil {
		return err
	}
	defer entries.Wipe()

	oldMaster, oldCache := t.master, t.cache
	buf := make([]byte, len(newMaster))
	copy(buf, newMaster)
	t.master = memguard.NewEnclave(buf)
	t.cache = nil

	if err := t.save(env, entries); err != nil {
		t.master, t.cache = oldMaster, oldCache
		return err
	}

	return nil
}

// view runs fn against a freshly decrypted copy of the store
func (t *Tome) view(fn func(*storage.Entries) error) error {
	env, err := t.load()
	if err != nil {
		return err
	}
	entries, err := t.decrypt(env)
	if err != nil {
		return err
	}
	defer entries.Wipe()

	return fn(entries)
}

// update runs fn against a freshly decrypted copy of the store and
// saves it when fn reports a change
func (t *Tome) update(fn func(*storage.Entries) (bool, error)) error {
	env, err := t.load()
	if err != nil {
		return err
	}
	entries, err := t.decrypt(env)
	if err != nil {
		return err
	}
	defer entries.Wipe()

	changed, err := fn(entries)
	if err != nil || !changed {
		return err
	}

	return t.save(env, entries)
}

func (t *Tome) load() (*storage.Envelope, error) {
	if t.master == nil {
		return nil, errors.New("tome is closed")
	}
	env, err := storage.Load(t.path)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, ErrNotInitialized
	}
	return env, err
}

// decrypt authenticates the master password against env and returns the
// entries it holds
func (t *Tome) decrypt(env *storage.Envelope) (*storage.Entries, error) {
	key, err := t.deriveKey(env.Salt, env.Stretch)
	if err != nil {
		return nil, err
	}
	enc, err := crypto.NewEncryptor(key)
	if err != nil {
		crypto.ClearBytes(key)
		return nil, err
	}
	defer enc.Destroy()

	padded, err := enc.Decrypt(env.Store, env.IV)
	switch {
	case errors.Is(err, crypto.ErrDecrypt):
		return nil, ErrWrongPassword
	case errors.Is(err, crypto.ErrInvalidIV):
		return nil, &FormatError{Field: "iv", Msg: "the tome database is invalid (missing or invalid IV)", Err: err}
	case errors.Is(err, crypto.ErrInvalidCiphertext):
		return nil, &FormatError{Field: "store", Msg: "the tome database is invalid (missing or invalid store)", Err: err}
	case err != nil:
		return nil, err
	}
	defer crypto.ClearBytes(padded)

	// A wrong key that slips past PKCS#7 validation still yields garbage
	data, err := crypto.Unpad(padded)
	if err != nil {
		return nil, ErrWrongPassword
	}
	entries, err := storage.ParseEntries(data)
	if err != nil {
		return nil, ErrWrongPassword
	}

	t.remember(env.Salt, env.Stretch, key)
	return entries, nil
}

// save encrypts entries under a fresh salt and IV and rewrites the file
func (t *Tome) save(env *storage.Envelope, entries *storage.Entries) error {
	data, err := entries.Marshal()
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(data)

	// Never commit plaintext that the next open could not parse
	check, err := storage.ParseEntries(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	n := check.Len()
	check.Wipe()
	if n != entries.Len() {
		return fmt.Errorf("%w: wrote %d entries, read back %d", ErrUnreadable, entries.Len(), n)
	}

	padded, err := crypto.Pad(data, crypto.PadMin, crypto.PadMax)
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(padded)

	salt, err := crypto.NewSalt()
	if err != nil {
		return err
	}
	iv, err := crypto.NewIV()
	if err != nil {
		return err
	}

	key, err := t.deriveKey(salt, env.Stretch)
	if err != nil {
		return err
	}
	enc, err := crypto.NewEncryptor(key)
	if err != nil {
		crypto.ClearBytes(key)
		return err
	}
	defer enc.Destroy()

	ciphertext, err := enc.Encrypt(padded, iv)
	if err != nil {
		return fmt.Errorf("failed to encrypt store: %w", err)
	}

	next := *env
	next.Version = storage.FileVersion
	next.Salt = salt
	next.IV = iv
	next.Store = ciphertext
	next.Modified = time.Now()

	if err := storage.Save(t.path, &next); err != nil {
		return err
	}
	*env = next

	t.remember(salt, env.Stretch, key)
	return nil
}

// deriveKey returns the key for salt and stretch, from the cache when the
// handle has already derived it
func (t *Tome) deriveKey(salt []byte, stretch int) ([]byte, error) {
	if c := t.cache; c != nil && c.stretch == stretch && bytes.Equal(c.salt, salt) {
		buf, err := c.key.Open()
		if err == nil {
			key := append([]byte(nil), buf.Bytes()...)
			buf.Destroy()
			return key, nil
		}
	}

	if t.master == nil {
		return nil, errors.New("tome is closed")
	}
	master, err := t.master.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open master password: %w", err)
	}
	defer master.Destroy()

	return crypto.DeriveKey(master.Bytes(), salt, stretch)
}

func (t *Tome) remember(salt []byte, stretch int, key []byte) {
	buf := make([]byte, len(key))
	copy(buf, key)
	t.cache = &keyCache{
		salt:    append([]byte(nil), salt...),
		stretch: stretch,
		key:     memguard.NewEnclave(buf),
	}
}

// Info describes a store file without decrypting it
type Info struct {
	Path     string
	Size     int64
	Version  int
	Stretch  int
	VaultID  string
	Created  time.Time
	Modified time.Time
}

// Inspect reads the unencrypted envelope fields of the store at path
func Inspect(path string) (*Info, error) {
	env, err := storage.Load(path)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	return &Info{
		Path:     path,
		Size:     stat.Size(),
		Version:  env.Version,
		Stretch:  env.Stretch,
		VaultID:  env.VaultID,
		Created:  env.Created,
		Modified: env.Modified,
	}, nil
}
