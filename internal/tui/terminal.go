package tui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/cancelreader"
	"golang.org/x/term"
)

// Console is the terminal a prompt runs on.
type Console interface {
	io.Writer
	// Width returns the current number of columns.
	Width() int
	// Start puts the terminal in raw mode and returns its key input.
	Start() (Input, error)
}

// Input is raw key input for one prompt. Cancel unblocks a pending Read;
// Close releases the input and restores the terminal.
type Input interface {
	io.Reader
	Cancel() bool
	Close() error
}

// TTY is the real terminal.
type TTY struct {
	in  *os.File
	out *os.File
}

// NewTTY returns a console over the process's stdin and stdout.
func NewTTY() *TTY {
	return &TTY{in: os.Stdin, out: os.Stdout}
}

// IsTerminal reports whether both ends are attached to a terminal.
func (t *TTY) IsTerminal() bool {
	return term.IsTerminal(int(t.in.Fd())) && term.IsTerminal(int(t.out.Fd()))
}

func (t *TTY) Write(p []byte) (int, error) {
	return t.out.Write(p)
}

// Width returns the terminal width, or 80 when it cannot be read.
func (t *TTY) Width() int {
	w, _, err := term.GetSize(int(t.out.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// Start enters raw mode. The caller must Close the returned input.
func (t *TTY) Start() (Input, error) {
	fd := int(t.in.Fd())
	prev, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("enter raw mode: %w", err)
	}
	cr, err := cancelreader.NewReader(t.in)
	if err != nil {
		_ = term.Restore(fd, prev)
		return nil, fmt.Errorf("open key reader: %w", err)
	}
	return &ttyInput{
		CancelReader: cr,
		restore:      func() error { return term.Restore(fd, prev) },
	}, nil
}

type ttyInput struct {
	cancelreader.CancelReader
	restore func() error
}

func (i *ttyInput) Close() error {
	return errors.Join(i.CancelReader.Close(), i.restore())
}

// IsCanceled reports whether err came from cancelling an Input.
func IsCanceled(err error) bool {
	return errors.Is(err, cancelreader.ErrCanceled)
}

// crlfWriter translates bare LF to CRLF. Output written while the terminal is
// raw goes through it.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	s := strings.ReplaceAll(string(p), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", "\r\n")
	if _, err := io.WriteString(c.w, s); err != nil {
		return 0, err
	}
	return len(p), nil
}
