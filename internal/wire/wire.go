// Package wire frames a duplex byte stream into newline-delimited protocol
// messages.
//
// Wire format:
//
//	<json>\n
//
// The stream on the initiator side is an ssh subprocess's stdio; on the
// responder side it is the process's own stdin/stdout. Neither supports
// deadlines, so a wedged write is left to the heartbeat layer to detect.
package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alfa07/clipcast/internal/message"
)

const (
	// MaxLineSize is the largest line we will read (1 MiB). Clipboard
	// payloads beyond that indicate a broken or hostile peer.
	MaxLineSize = 1 << 20

	// maxGarbageLines is how many consecutive undecodable lines ReadMsg
	// tolerates before declaring the transport broken. Startup noise from a
	// remote shell (banners, MOTD) is expected; an endless stream of garbage
	// is not.
	maxGarbageLines = 32
)

// ErrClosed is returned by ReadMsg when the underlying stream has reached
// end-of-input or failed. It is the trigger for reconnection.
var ErrClosed = errors.New("wire: channel closed")

// Conn wraps a duplex byte stream with buffered newline-delimited JSON
// framing. Writes are serialised: concurrent WriteMsg calls never interleave
// partial lines.
type Conn struct {
	rw io.ReadWriteCloser
	br *bufio.Reader

	wmu       sync.Mutex
	lastWrite atomic.Int64 // UnixNano of the last successful write
}

// New wraps rw. Closing the Conn closes rw, which releases a blocked ReadMsg.
func New(rw io.ReadWriteCloser) *Conn {
	return &Conn{
		rw: rw,
		br: bufio.NewReaderSize(rw, 64*1024),
	}
}

// Close closes the underlying stream.
func (c *Conn) Close() error { return c.rw.Close() }

// LastWrite returns the time of the most recent successful write, or the
// zero time if nothing has been written yet.
func (c *Conn) LastWrite() time.Time {
	ns := c.lastWrite.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// WriteMsg serialises msg and writes it followed by a newline. The whole
// line is written under one lock so a ping reply and a clipboard payload can
// never shear mid-line.
func (c *Conn) WriteMsg(msg *message.Message) error {
	raw, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	line := append(raw, '\n')

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.rw.Write(line); err != nil {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	c.lastWrite.Store(time.Now().UnixNano())
	return nil
}

// ReadMsg blocks until a full line is available and returns the decoded
// message. Undecodable lines are dropped with a warning; blank lines are
// skipped silently. After maxGarbageLines consecutive drops, or on
// end-of-input or an IO error, ReadMsg returns an error wrapping ErrClosed.
func (c *Conn) ReadMsg() (*message.Message, error) {
	garbage := 0
	for {
		line, err := c.br.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrClosed, err)
		}
		if len(line) > MaxLineSize {
			return nil, fmt.Errorf("%w: line too large (%d bytes)", ErrClosed, len(line))
		}

		// Strip the newline and an optional \r from a remote shell.
		line = line[:len(line)-1]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		if len(line) == 0 {
			continue
		}

		msg, err := message.Decode(line)
		if err != nil {
			garbage++
			slog.Warn("dropping unparseable line", "err", err, "len", len(line), "consecutive", garbage)
			if garbage >= maxGarbageLines {
				return nil, fmt.Errorf("%w: %d consecutive unparseable lines", ErrClosed, garbage)
			}
			continue
		}
		return msg, nil
	}
}
