package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Editor composes a message in an external program.
type Editor interface {
	Edit(ctx context.Context, initial string) (string, error)
}

// ExecEditor runs Command (for example "vim" or "code --wait") on a
// temporary file holding the draft.
type ExecEditor struct {
	Command string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewExecEditor returns an editor attached to the process's terminal.
func NewExecEditor(command string) ExecEditor {
	return ExecEditor{Command: command, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Edit returns the file's content after the editor exits, without the
// trailing newline editors add.
func (e ExecEditor) Edit(ctx context.Context, initial string) (string, error) {
	argv := strings.Fields(e.Command)
	if len(argv) == 0 {
		return "", errors.New("no editor configured")
	}

	f, err := os.CreateTemp("", "slack-tui-*.md")
	if err != nil {
		return "", fmt.Errorf("failed to create draft: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(initial); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write draft: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write draft: %w", err)
	}

	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], path)...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = e.Stdin, e.Stdout, e.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("editor %s: %w", argv[0], err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read draft: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}
