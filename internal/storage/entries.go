package storage

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidArgument reports an empty identifier, pattern or password
var ErrInvalidArgument = errors.New("invalid argument")

// Record is the credential stored under an identifier
type Record struct {
	Password string `yaml:"password"`
}

// Entries is the decrypted identifier to credential mapping.
// Identifiers are unique under case-insensitive comparison.
type Entries struct {
	records map[string]Record
}

// NewEntries creates an empty entry store
func NewEntries() *Entries {
	return &Entries{records: make(map[string]Record)}
}

// record is the serialized form of one entry. The store is written as a
// sequence of records rather than a map so no identifier is ever a YAML
// mapping key ("<<" would be read back as a merge key).
type record struct {
	ID       string `yaml:"id"`
	Password string `yaml:"password"`
}

// ParseEntries decodes a serialized entry store
func ParseEntries(data []byte) (*Entries, error) {
	var list []record
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse entries: %w", err)
	}

	e := NewEntries()
	for _, r := range list {
		if r.ID == "" || r.Password == "" {
			return nil, fmt.Errorf("failed to parse entries: empty identifier or password")
		}
		if _, ok := e.lookup(r.ID); ok {
			return nil, fmt.Errorf("failed to parse entries: duplicate identifier %q", r.ID)
		}
		e.records[r.ID] = Record{Password: r.Password}
	}
	return e, nil
}

// Marshal serializes the entry store in identifier order
func (e *Entries) Marshal() ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.SequenceNode}
	for _, id := range e.IDs() {
		item := &yaml.Node{Kind: yaml.MappingNode}
		for _, v := range []string{"id", id, "password", e.records[id].Password} {
			n, err := quoted(v)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal entries: %w", err)
			}
			item.Content = append(item.Content, n)
		}
		doc.Content = append(doc.Content, item)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entries: %w", err)
	}
	return data, nil
}

// quoted encodes s as a double-quoted string scalar. Invalid UTF-8 keeps
// the !!binary form yaml.v3 chooses for it.
func quoted(s string) (*yaml.Node, error) {
	n := &yaml.Node{}
	if err := n.Encode(s); err != nil {
		return nil, err
	}
	if n.Tag != "!!binary" {
		n.Tag = "!!str"
		n.Style = yaml.DoubleQuotedStyle
	}
	return n, nil
}

// Len returns the number of records
func (e *Entries) Len() int {
	return len(e.records)
}

// lookup finds the stored key matching id case-insensitively
func (e *Entries) lookup(id string) (string, bool) {
	if _, ok := e.records[id]; ok {
		return id, true
	}
	for key := range e.records {
		if strings.EqualFold(key, id) {
			return key, true
		}
	}
	return "", false
}

// Set adds or updates the password for id. An existing identifier keeps
// its original casing. Returns true if id was newly created.
func (e *Entries) Set(id, password string) (bool, error) {
	if id == "" || password == "" {
		return false, ErrInvalidArgument
	}

	key, exists := e.lookup(id)
	if !exists {
		key = id
	}
	e.records[key] = Record{Password: password}

	return !exists, nil
}

// Get returns the password stored under id
func (e *Entries) Get(id string) (string, bool, error) {
	if id == "" {
		return "", false, ErrInvalidArgument
	}

	key, ok := e.lookup(id)
	if !ok {
		return "", false, nil
	}
	return e.records[key].Password, true, nil
}

// Find returns the records matching pattern. An identifier equal to the
// pattern (ignoring case) wins outright; otherwise every identifier
// containing a case-insensitive match of pattern is returned.
//
// The pattern is a regular expression. Patterns that do not compile are
// matched as literal substrings instead of failing.
func (e *Entries) Find(pattern string) (map[string]string, error) {
	if pattern == "" {
		return nil, ErrInvalidArgument
	}

	matches := make(map[string]string)
	if key, ok := e.lookup(pattern); ok {
		matches[key] = e.records[key].Password
		return matches, nil
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(pattern))
	}
	for key, r := range e.records {
		if re.MatchString(key) {
			matches[key] = r.Password
		}
	}

	return matches, nil
}

// Delete removes the record for id. Returns true if a record was removed.
func (e *Entries) Delete(id string) (bool, error) {
	if id == "" {
		return false, ErrInvalidArgument
	}

	key, ok := e.lookup(id)
	if !ok {
		return false, nil
	}
	delete(e.records, key)

	return true, nil
}

// Rename moves the record for oldID to newID, replacing any record
// already stored under newID. Returns false if oldID does not exist.
func (e *Entries) Rename(oldID, newID string) (bool, error) {
	if oldID == "" || newID == "" {
		return false, ErrInvalidArgument
	}

	oldKey, ok := e.lookup(oldID)
	if !ok {
		return false, nil
	}
	record := e.records[oldKey]
	delete(e.records, oldKey)

	if existing, ok := e.lookup(newID); ok {
		delete(e.records, existing)
	}
	e.records[newID] = record

	return true, nil
}

// IDs returns all identifiers in sorted order
func (e *Entries) IDs() []string {
	return slices.Sorted(maps.Keys(e.records))
}

// All iterates over (identifier, password) pairs in identifier order.
// Each call walks the records afresh.
func (e *Entries) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, id := range e.IDs() {
			if !yield(id, e.records[id].Password) {
				return
			}
		}
	}
}

// Wipe drops every record
func (e *Entries) Wipe() {
	clear(e.records)
}
