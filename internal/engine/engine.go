// Package engine implements the clipboard synchronisation core: change
// detection by polling, echo suppression, the heartbeat that keeps the link
// alive, and the session lifecycle that binds them to one connection.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alfa07/clipcast/internal/clip"
	"github.com/alfa07/clipcast/internal/message"
	"github.com/alfa07/clipcast/internal/wire"
)

// Config carries the timing knobs for one session. Zero values select the
// defaults, which match the original tool's constants.
type Config struct {
	// PollInterval is how often the local clipboard is sampled.
	PollInterval time.Duration

	// PingInterval is how often a ping is sent on a quiet link.
	PingInterval time.Duration

	// StaleTimeout is how long the link may stay silent before the session
	// is declared stale and torn down.
	StaleTimeout time.Duration
}

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultPingInterval = 3 * time.Second
	DefaultStaleTimeout = 10 * time.Second
)

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.PingInterval <= 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.StaleTimeout <= 0 {
		c.StaleTimeout = DefaultStaleTimeout
	}
	return c
}

// Engine owns the fingerprint: the last clipboard text known to be
// authoritative on this side, whether it came from a local change or a
// remote update. Both paths mutate it under the same lock, which also covers
// the accessor calls — that is what makes a remote update indistinguishable
// from "no change" to the next poll cycle, and so what prevents echo.
type Engine struct {
	accessor clip.Accessor
	conn     *wire.Conn
	hb       *Heartbeat

	mu          sync.Mutex
	fingerprint string
}

// New creates an Engine. hb may be nil when no heartbeat is running (tests).
func New(accessor clip.Accessor, conn *wire.Conn, hb *Heartbeat) *Engine {
	return &Engine{accessor: accessor, conn: conn, hb: hb}
}

// Fingerprint returns the current fingerprint.
func (e *Engine) Fingerprint() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fingerprint
}

// Seed samples the clipboard to establish the comparison baseline. Content
// already on the clipboard when a session starts is not broadcast; each
// session begins from whatever is there now. A failed read leaves the
// baseline empty, which at worst re-sends the current content once.
func (e *Engine) Seed(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	content, err := e.accessor.Read(ctx)
	if err != nil {
		slog.Warn("seed read failed, starting from empty baseline", "err", err)
		return
	}
	e.fingerprint = content
}

// PollOnce samples the clipboard once. A read failure skips the cycle. If
// the content differs from the fingerprint, the fingerprint is updated first
// and the content is then sent to the peer; only a channel failure is
// returned, and it ends the session.
func (e *Engine) PollOnce(ctx context.Context) error {
	e.mu.Lock()
	content, err := e.accessor.Read(ctx)
	if err != nil {
		e.mu.Unlock()
		slog.Warn("clipboard read failed, skipping cycle", "err", err)
		return nil
	}
	if content == e.fingerprint {
		e.mu.Unlock()
		return nil
	}
	e.fingerprint = content
	e.mu.Unlock()

	slog.Debug("local clipboard changed, sending", "len", len(content))
	return e.conn.WriteMsg(&message.Message{Type: message.TypeClipboard, Content: content})
}

// HandleMessage processes one inbound message. The pong reply to a ping is
// written directly from here — there is no outbound queue for it to wait
// behind. Only a channel failure is returned.
func (e *Engine) HandleMessage(ctx context.Context, msg *message.Message) error {
	switch msg.Type {
	case message.TypeClipboard:
		e.applyRemote(ctx, msg.Content)

	case message.TypePing:
		slog.Debug("ping received")
		return e.conn.WriteMsg(&message.Message{Type: message.TypePong})

	case message.TypePong:
		slog.Debug("pong received")
		if e.hb != nil {
			e.hb.Alive()
		}

	default:
		slog.Warn("unexpected message type on peer link", "type", msg.Type)
	}
	return nil
}

// applyRemote writes a received update to the clipboard. Content equal to
// the fingerprint is already in place and is ignored. The fingerprint moves
// only after a successful write, under the same lock as the write itself, so
// no poll cycle can observe the new clipboard content against the old
// fingerprint and bounce it back.
func (e *Engine) applyRemote(ctx context.Context, content string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if content == e.fingerprint {
		slog.Debug("remote update already in sync, ignoring")
		return
	}
	if err := e.accessor.Write(ctx, content); err != nil {
		// Leave the fingerprint alone: if the peer re-sends, we retry.
		slog.Error("clipboard write failed", "err", err)
		return
	}
	e.fingerprint = content
	slog.Debug("applied remote clipboard", "len", len(content))
}
