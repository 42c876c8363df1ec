package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zkeyring "github.com/zalando/go-keyring"

	"github.com/schmich/tome/internal/core"
)

const master = "correct horse"

// scriptedPrompter answers prompts from queues and records what was asked
type scriptedPrompter struct {
	passwords []string
	answers   []bool
	asked     []string
}

func (p *scriptedPrompter) Password(prompt string) ([]byte, error) {
	p.asked = append(p.asked, prompt)
	if len(p.passwords) == 0 {
		return nil, fmt.Errorf("unexpected password prompt %q", prompt)
	}
	next := p.passwords[0]
	p.passwords = p.passwords[1:]
	return []byte(next), nil
}

func (p *scriptedPrompter) Confirm(prompt string) (bool, error) {
	p.asked = append(p.asked, prompt)
	if len(p.answers) == 0 {
		return false, fmt.Errorf("unexpected confirmation %q", prompt)
	}
	next := p.answers[0]
	p.answers = p.answers[1:]
	return next, nil
}

type fakeClipboard struct {
	content string
	drop    bool
}

func (c *fakeClipboard) WriteAll(text string) error {
	if !c.drop {
		c.content = text
	}
	return nil
}

func (c *fakeClipboard) ReadAll() (string, error) {
	return c.content, nil
}

type harness struct {
	t        *testing.T
	path     string
	prompter *scriptedPrompter
	clip     *fakeClipboard
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	zkeyring.MockInit()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, name := range []string{"TOME_PASSWORD", "TOME_FILE", "TOME_STRETCH", "TOME_KEYRING", "TOME_VERBOSE"} {
		t.Setenv(name, "")
	}

	return &harness{
		t:        t,
		path:     filepath.Join(t.TempDir(), "store.tome"),
		prompter: &scriptedPrompter{},
		clip:     &fakeClipboard{},
	}
}

// passwords queues answers for the next password prompts
func (h *harness) passwords(p ...string) *harness {
	h.prompter.passwords = append(h.prompter.passwords, p...)
	return h
}

// answers queues answers for the next confirmations
func (h *harness) answers(a ...bool) *harness {
	h.prompter.answers = append(h.prompter.answers, a...)
	return h
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	root := NewRootCommand(WithPrompter(h.prompter), WithClipboard(h.clip))

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append([]string{"--file", h.path, "--stretch", "1"}, args...))

	err := root.Execute()
	return out.String(), err
}

// mustRun runs a command and fails the test on error
func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "tome %s", strings.Join(args, " "))
	return out
}

// seed creates the store with the given id/password pairs
func (h *harness) seed(pairs ...string) {
	h.t.Helper()
	require.Zero(h.t, len(pairs)%2)
	for i := 0; i < len(pairs); i += 2 {
		if i == 0 {
			h.passwords(master, master)
		} else {
			h.passwords(master)
		}
		h.mustRun("set", pairs[i], pairs[i+1])
	}
	require.Empty(h.t, h.prompter.passwords)
}

func TestSet_CreatesStore(t *testing.T) {
	h := newHarness(t)

	out := h.passwords(master, master).mustRun("set", "foo@gmail.com", "p4ssw0rd")
	assert.Contains(t, out, "Created password for foo@gmail.com.")

	exists, err := core.Exists(h.path)
	require.NoError(t, err)
	assert.True(t, exists)

	out = h.passwords(master).mustRun("get", "foo@gmail.com")
	assert.Equal(t, "foo@gmail.com: p4ssw0rd\n", out)
}

func TestSet_PromptsForPassword(t *testing.T) {
	h := newHarness(t)
	h.seed("a.com", "x")

	// First attempt mismatches, second succeeds
	h.passwords(master, "one", "two", "secret", "secret")
	out := h.mustRun("set", "b.com")
	assert.Contains(t, out, "Created password for b.com.")

	out = h.passwords(master).mustRun("get", "b.com")
	assert.Equal(t, "b.com: secret\n", out)
}

func TestSet_BlankMasterPassword(t *testing.T) {
	h := newHarness(t)

	h.passwords("", "", "", "", "")
	_, err := h.run("set", "a.com", "x")
	assert.ErrorIs(t, err, ErrBlankPassword)

	exists, err := core.Exists(h.path)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSet_OverwriteConfirmation(t *testing.T) {
	h := newHarness(t)
	h.seed("a.com", "old")

	_, err := h.passwords(master).answers(false).run("set", "A.com", "new")
	assert.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, "a.com: old\n", h.passwords(master).mustRun("get", "a.com"))

	out := h.passwords(master).answers(true).mustRun("set", "A.com", "new")
	assert.Contains(t, out, "Updated password for A.com.")
	assert.Equal(t, "a.com: new\n", h.passwords(master).mustRun("get", "a.com"))
}

func TestGet_Patterns(t *testing.T) {
	h := newHarness(t)
	h.seed("foo@gmail.com", "1", "bar@gmail.com", "2", "gmail.com", "3", "reddit.com", "4")

	out := h.passwords(master).mustRun("get", "GMAIL.COM")
	assert.Equal(t, "gmail.com: 3\n", out, "exact match wins")

	out = h.passwords(master).mustRun("g", "gmail")
	assert.Equal(t, "bar@gmail.com: 2\nfoo@gmail.com: 1\ngmail.com: 3\n", out)

	out = h.passwords(master).mustRun("show", "^foo@")
	assert.Equal(t, "foo@gmail.com: 1\n", out)
}

func TestGet_NoMatchSuggests(t *testing.T) {
	h := newHarness(t)
	h.seed("foo@gmail.com", "1", "reddit.com", "2")

	_, err := h.passwords(master).run("get", "gmial")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no password found for gmial")
	assert.Contains(t, err.Error(), "foo@gmail.com")
}

func TestGet_NotInitialized(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("get", "x")
	assert.ErrorIs(t, err, core.ErrNotInitialized)
	assert.Empty(t, h.prompter.asked, "no prompt before the store exists")
}

func TestGet_WrongPasswordRetries(t *testing.T) {
	h := newHarness(t)
	h.seed("a.com", "x")

	h.prompter.asked = nil
	out := h.passwords("bad", master).mustRun("get", "a.com")
	assert.Equal(t, "a.com: x\n", out)
	assert.Len(t, h.prompter.asked, 2)

	_, err := h.passwords("bad", "worse", "worst").run("get", "a.com")
	assert.ErrorIs(t, err, core.ErrWrongPassword)
	assert.Empty(t, h.prompter.passwords)
}

func TestPasswordFromEnvironment(t *testing.T) {
	h := newHarness(t)
	t.Setenv("TOME_PASSWORD", master)

	h.mustRun("set", "a.com", "x")
	assert.Equal(t, "a.com: x\n", h.mustRun("get", "a.com"))
	assert.Empty(t, h.prompter.asked)

	t.Setenv("TOME_PASSWORD", "wrong")
	_, err := h.run("get", "a.com")
	assert.ErrorIs(t, err, core.ErrWrongPassword)
	assert.Empty(t, h.prompter.asked, "no fallback prompt for an environment password")
}

func TestCopy(t *testing.T) {
	h := newHarness(t)
	h.seed("foo@gmail.com", "1", "bar@gmail.com", "2")

	out := h.passwords(master).mustRun("cp", "foo")
	assert.Contains(t, out, "Password for foo@gmail.com copied to clipboard.")
	assert.Equal(t, "1", h.clip.content)

	_, err := h.passwords(master).run("copy", "gmail")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple matches")
	assert.Contains(t, err.Error(), "bar@gmail.com")

	_, err = h.passwords(master).run("copy", "nothing")
	assert.Error(t, err)
}

func TestCopy_DroppedByClipboard(t *testing.T) {
	h := newHarness(t)
	h.seed("a.com", "x")
	h.clip.drop = true

	_, err := h.passwords(master).run("copy", "a.com")
	assert.ErrorIs(t, err, ErrClipboard)
}

func TestList(t *testing.T) {
	h := newHarness(t)
	t.Setenv("TOME_PASSWORD", master)

	h.mustRun("set", "a.com", "x")
	h.mustRun("delete", "-y", "a.com")
	assert.Equal(t, "No passwords stored.\n", h.mustRun("list"))

	h.mustRun("set", "b.com", "2")
	h.mustRun("set", "a.com", "1")
	assert.Equal(t, "a.com: 1\nb.com: 2\n", h.mustRun("ls"))
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	h.seed("a.com", "x", "b.com", "y")

	_, err := h.passwords(master).answers(false).run("rm", "a.com")
	assert.ErrorIs(t, err, ErrAborted)

	out := h.passwords(master).answers(true).mustRun("delete", "A.COM")
	assert.Contains(t, out, "Deleted password for A.COM.")
	assert.Equal(t, "b.com: y\n", h.passwords(master).mustRun("list"))

	_, err = h.passwords(master).run("del", "a.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no password found for a.com")
}

func TestRename(t *testing.T) {
	h := newHarness(t)
	h.seed("a.com", "x", "b.com", "y")

	out := h.passwords(master).mustRun("rename", "a.com", "c.com")
	assert.Contains(t, out, "Moved a.com to c.com.")

	_, err := h.passwords(master).answers(false).run("rn", "c.com", "b.com")
	assert.ErrorIs(t, err, ErrAborted)

	h.passwords(master).answers(true).mustRun("ren", "c.com", "b.com")
	assert.Equal(t, "b.com: x\n", h.passwords(master).mustRun("list"))

	_, err = h.passwords(master).run("rename", "missing.com", "d.com")
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	h := newHarness(t)
	t.Setenv("TOME_PASSWORD", master)

	out := h.mustRun("generate", "a.com")
	assert.Contains(t, out, "Generated password for a.com:")

	got := strings.TrimPrefix(h.mustRun("get", "a.com"), "a.com: ")
	assert.Len(t, strings.TrimSpace(got), 30)

	h.answers(true).mustRun("gen", "a.com", "--length", "12", "--digits", "2", "--symbols", "2")
	got = strings.TrimPrefix(h.mustRun("get", "a.com"), "a.com: ")
	assert.Len(t, strings.TrimSpace(got), 12)

	h.mustRun("gen", "b.com", "--words", "5")
	got = strings.TrimPrefix(h.mustRun("get", "b.com"), "b.com: ")
	assert.GreaterOrEqual(t, len(strings.Split(strings.TrimSpace(got), "-")), 5)
}

func TestPasswd(t *testing.T) {
	h := newHarness(t)
	h.seed("a.com", "x")

	out := h.passwords(master, "new master", "new master").mustRun("passwd")
	assert.Contains(t, out, "Master password changed.")

	_, err := h.passwords(master, master, master).run("get", "a.com")
	assert.ErrorIs(t, err, core.ErrWrongPassword)

	assert.Equal(t, "a.com: x\n", h.passwords("new master").mustRun("get", "a.com"))
}

func TestStatus(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("status")
	assert.Contains(t, out, "No tome database")

	h.seed("a.com", "x")
	out = h.mustRun("status")
	assert.Contains(t, out, "Store:    "+h.path)
	assert.Contains(t, out, "Version:  1")
	assert.Contains(t, out, "Stretch:  1")
	assert.Contains(t, out, "Keyring:  not stored")
	assert.Empty(t, h.prompter.passwords)
}

func TestKeyring(t *testing.T) {
	h := newHarness(t)
	h.seed("a.com", "x")

	_, err := h.passwords("wrong").run("keyring", "save")
	assert.ErrorIs(t, err, core.ErrWrongPassword)
	assert.Contains(t, h.mustRun("keyring", "status"), "not stored")

	out := h.passwords(master).mustRun("keyring", "save")
	assert.Contains(t, out, "Password saved to keyring.")
	assert.Contains(t, h.mustRun("keyring", "status"), "stored in keyring")

	// With the keyring enabled no prompt is needed
	h.prompter.asked = nil
	assert.Equal(t, "a.com: x\n", h.mustRun("--keyring", "get", "a.com"))
	assert.Empty(t, h.prompter.asked)

	// Changing the master password updates the saved copy
	out = h.passwords(master, "next", "next").mustRun("passwd")
	assert.Contains(t, out, "Keyring updated")
	assert.Equal(t, "a.com: x\n", h.mustRun("--keyring", "get", "a.com"))

	assert.Contains(t, h.mustRun("keyring", "delete"), "Password removed from keyring.")
	assert.Contains(t, h.mustRun("keyring", "delete"), "No password stored in keyring.")
}

func TestKeyring_StalePasswordFallsBackToPrompt(t *testing.T) {
	h := newHarness(t)
	h.seed("a.com", "x")

	h.passwords(master).mustRun("keyring", "save")
	h.passwords(master, "next", "next").mustRun("passwd")

	// passwd updated the keyring, so make it stale by hand
	info, err := core.Inspect(h.path)
	require.NoError(t, err)
	require.NoError(t, zkeyring.Set("tome", info.VaultID, "stale"))

	assert.Equal(t, "a.com: x\n", h.passwords("next").mustRun("--keyring", "get", "a.com"))
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("version")
	assert.True(t, strings.HasPrefix(out, "tome "+Version))
}

func TestEnvironmentSelectsStore(t *testing.T) {
	h := newHarness(t)
	t.Setenv("TOME_PASSWORD", master)

	other := filepath.Join(t.TempDir(), "other.tome")
	t.Setenv("TOME_FILE", other)

	root := NewRootCommand(WithPrompter(h.prompter), WithClipboard(h.clip))
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"--stretch", "1", "set", "a.com", "x"})
	require.NoError(t, root.Execute())

	exists, err := core.Exists(other)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{core.ErrNotInitialized, "tome database does not exist"},
		{fmt.Errorf("open: %w", core.ErrWrongPassword), "incorrect master password"},
		{ErrAborted, "aborted."},
		{&core.FormatError{Field: "salt", Msg: "missing"}, "damaged or not a tome database"},
		{fmt.Errorf("plain"), "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Contains(t, ErrorMessage(tt.err), tt.want)
		})
	}
}
