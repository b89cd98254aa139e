// Package transport establishes the duplex byte stream between the two
// sides. The initiator spawns ssh running the responder on the far end and
// talks to it over the subprocess's stdio; the responder's stream is its own
// stdin/stdout.
package transport

import (
	"context"
	"io"
	"os"
)

// Stream is a duplex byte stream to the peer. Close must release any
// blocked Read and tear down whatever is behind the stream.
type Stream interface {
	io.ReadWriteCloser
}

// Dialer establishes a Stream. Retry policy belongs to the connection
// supervisor, not to implementations.
type Dialer interface {
	Dial(ctx context.Context) (Stream, error)
}

// Stdio returns the responder-side Stream over this process's standard
// input and output. Logs must go to stderr — stdout is the channel.
func Stdio() Stream {
	return &stdioStream{}
}

type stdioStream struct{}

func (*stdioStream) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (*stdioStream) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func (*stdioStream) Close() error {
	_ = os.Stdout.Close()
	return os.Stdin.Close()
}
