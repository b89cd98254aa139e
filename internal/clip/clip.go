// Package clip provides access to the system clipboard.
//
// The primary implementation shells out to configurable external commands
// (xclip, xsel, pbcopy, pbpaste, wl-copy, ...), which is what makes clipcast
// work over SSH on machines whose clipboard tooling differs. An optional
// native backend uses the OS clipboard API directly.
package clip

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"
)

// Accessor reads and writes clipboard text. Implementations must be safe for
// use from a single goroutine at a time; the sync engine serialises calls.
type Accessor interface {
	// Name returns a human-readable name for logging.
	Name() string

	// Read returns the current clipboard text.
	Read(ctx context.Context) (string, error)

	// Write replaces the clipboard text.
	Write(ctx context.Context, content string) error
}

// DefaultTimeout bounds a single clipboard command invocation. A hung xclip
// must not stall the poll loop forever.
const DefaultTimeout = 5 * time.Second

// CommandAccessor runs external commands to read and write the clipboard.
// The command strings are split shell-style once at construction.
type CommandAccessor struct {
	readArgv  []string
	writeArgv []string
	timeout   time.Duration
}

// NewCommand builds a CommandAccessor from shell-style command strings, e.g.
// "xclip -selection clipboard -o" for reading. timeout <= 0 selects
// DefaultTimeout.
func NewCommand(readCmd, writeCmd string, timeout time.Duration) (*CommandAccessor, error) {
	readArgv, err := splitCommand("read", readCmd)
	if err != nil {
		return nil, err
	}
	writeArgv, err := splitCommand("write", writeCmd)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CommandAccessor{
		readArgv:  readArgv,
		writeArgv: writeArgv,
		timeout:   timeout,
	}, nil
}

func splitCommand(role, cmd string) ([]string, error) {
	argv, err := shlex.Split(cmd)
	if err != nil {
		return nil, fmt.Errorf("%s command %q: %w", role, cmd, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("%s command is empty", role)
	}
	return argv, nil
}

func (a *CommandAccessor) Name() string {
	return fmt.Sprintf("command (%s / %s)", a.readArgv[0], a.writeArgv[0])
}

// Read runs the read command and returns its stdout.
func (a *CommandAccessor) Read(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.readArgv[0], a.readArgv[1:]...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("read command %s: %w", a.readArgv[0], err)
	}
	return out.String(), nil
}

// Write runs the write command with content on its stdin.
func (a *CommandAccessor) Write(ctx context.Context, content string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, a.writeArgv[0], a.writeArgv[1:]...)
	cmd.Stdin = strings.NewReader(content)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("write command %s: %w", a.writeArgv[0], err)
	}
	return nil
}
