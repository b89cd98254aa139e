package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strings"
)

// SSH dials the remote side by spawning an ssh subprocess that runs the
// responder (`<RemoteCommand> server ...`) on the far end. The subprocess's
// stdin/stdout become the duplex stream; its stderr is inherited so remote
// logs surface in the local terminal.
type SSH struct {
	// Host is the ssh destination (host, user@host, or an ssh config alias).
	Host string

	// Args are extra arguments placed before the host (-p, -i, -J, ...).
	Args []string

	// RemoteCommand is the responder binary on the remote host.
	RemoteCommand string

	// RemoteReadCmd and RemoteWriteCmd are the clipboard commands passed to
	// the responder.
	RemoteReadCmd  string
	RemoteWriteCmd string
}

// Dial spawns the ssh process and returns its stdio as a Stream. ctx bounds
// only the spawn; the returned Stream lives until Close, which kills the
// process.
func (s *SSH) Dial(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	args := s.args()
	slog.Info("spawning transport", "cmd", "ssh", "args", strings.Join(args, " "))

	cmd := exec.Command("ssh", args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("transport stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("transport stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn ssh: %w", err)
	}

	return &procStream{cmd: cmd, in: stdin, out: stdout}, nil
}

// args builds the full ssh argument list:
//
//	<extra args> <host> -- <remote command> server --read-clipboard-cmd '...' --write-clipboard-cmd '...'
func (s *SSH) args() []string {
	remote := strings.Join([]string{
		s.RemoteCommand,
		"server",
		"--read-clipboard-cmd", singleQuote(s.RemoteReadCmd),
		"--write-clipboard-cmd", singleQuote(s.RemoteWriteCmd),
	}, " ")

	args := slices.Clone(s.Args)
	args = append(args, s.Host, "--", remote)
	return args
}

// singleQuote wraps s in single quotes for the remote shell, escaping any
// embedded single quote with the '\'' idiom.
func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// procStream adapts a running subprocess's stdio into a Stream.
type procStream struct {
	cmd *exec.Cmd
	in  io.WriteCloser
	out io.ReadCloser
}

func (p *procStream) Read(b []byte) (int, error)  { return p.out.Read(b) }
func (p *procStream) Write(b []byte) (int, error) { return p.in.Write(b) }

// Close tears the transport down. Stdin is closed first so a healthy remote
// exits on EOF; the kill covers a wedged one. Waiting reaps the process so
// repeated reconnects cannot accumulate zombies.
func (p *procStream) Close() error {
	_ = p.in.Close()
	_ = p.out.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	if err := p.cmd.Wait(); err != nil {
		slog.Debug("transport exited", "err", err)
	}
	return nil
}
