package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/schmich/tome/internal/crypto"
)

const maxPromptAttempts = 3

var (
	ErrAborted          = errors.New("aborted")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrBlankPassword    = errors.New("password cannot be blank")
)

// Prompter asks the user for input
type Prompter interface {
	// Password reads a secret without echoing it.
	// The caller is responsible for calling crypto.ClearBytes on the result.
	Password(prompt string) ([]byte, error)
	// Confirm asks a yes/no question
	Confirm(prompt string) (bool, error)
}

// terminalPrompter prompts on out and reads from in, suppressing echo
// when in is a terminal. A cancelled context abandons the pending read
// and restores the terminal.
type terminalPrompter struct {
	ctx    context.Context
	in     io.Reader
	out    io.Writer
	reader *bufio.Reader
}

func newTerminalPrompter(ctx context.Context, in io.Reader, out io.Writer) *terminalPrompter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &terminalPrompter{ctx: ctx, in: in, out: out, reader: bufio.NewReader(in)}
}

// Password reads a password from the terminal without echoing
func (p *terminalPrompter) Password(prompt string) ([]byte, error) {
	fmt.Fprint(p.out, prompt)
	defer fmt.Fprintln(p.out) // New line after password

	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		state, err := term.GetState(fd)
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		password, err := p.await(func() ([]byte, error) { return term.ReadPassword(fd) })
		if errors.Is(err, context.Canceled) {
			// ReadPassword is still blocked and will not restore echo itself
			_ = term.Restore(fd, state)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		return password, nil
	}

	line, err := p.await(func() ([]byte, error) {
		line, err := p.readLine()
		return []byte(line), err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return line, nil
}

// Confirm asks until the answer starts with y or n
func (p *terminalPrompter) Confirm(prompt string) (bool, error) {
	for {
		fmt.Fprint(p.out, prompt)
		line, err := p.await(func() ([]byte, error) {
			line, err := p.readLine()
			return []byte(line), err
		})
		if err != nil {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(string(line)))
		switch {
		case strings.HasPrefix(answer, "y"):
			return true, nil
		case strings.HasPrefix(answer, "n"):
			return false, nil
		}
	}
}

// await runs read until it returns or the context is done
func (p *terminalPrompter) await(read func() ([]byte, error)) ([]byte, error) {
	if err := p.ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		data []byte
		err  error
	}

	done := make(chan result, 1)
	go func() {
		data, err := read()
		done <- result{data, err}
	}()

	select {
	case r := <-done:
		return r.data, r.err
	case <-p.ctx.Done():
		return nil, p.ctx.Err()
	}
}

func (p *terminalPrompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptNewPassword reads a password twice and ensures they match and
// are not blank, retrying a few times
func promptNewPassword(p Prompter, out io.Writer, label string) ([]byte, error) {
	var lastErr error
	for range maxPromptAttempts {
		password, err := readPasswordConfirm(p, label)
		if err == nil {
			return password, nil
		}
		if !errors.Is(err, ErrBlankPassword) && !errors.Is(err, ErrPasswordMismatch) {
			return nil, err
		}
		fmt.Fprintf(out, "%s.\n", capitalize(err.Error()))
		lastErr = err
	}
	return nil, lastErr
}

func readPasswordConfirm(p Prompter, label string) ([]byte, error) {
	password1, err := p.Password(label + ": ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password1)
	if len(password1) == 0 {
		return nil, ErrBlankPassword
	}

	password2, err := p.Password(label + " (verify): ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(password2)

	if !crypto.ConstantTimeCompare(password1, password2) {
		return nil, ErrPasswordMismatch
	}

	// Return a copy of the password
	result := make([]byte, len(password1))
	copy(result, password1)
	return result, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
