package engine

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/alfa07/clipcast/internal/clip"
	"github.com/alfa07/clipcast/internal/wire"
)

// Session binds one wire connection, one Engine, and one Heartbeat. All
// three are created together and torn down together; nothing survives into
// the next session, so a reconnect always starts from a freshly sampled
// clipboard baseline.
type Session struct {
	cfg    Config
	conn   *wire.Conn
	engine *Engine
}

// NewSession wraps stream for one session's lifetime. Closing happens inside
// Run; the caller only supplies the stream.
func NewSession(stream io.ReadWriteCloser, accessor clip.Accessor, cfg Config) *Session {
	cfg = cfg.withDefaults()
	conn := wire.New(stream)
	hb := NewHeartbeat(conn, cfg.PingInterval, cfg.StaleTimeout)
	return &Session{
		cfg:    cfg,
		conn:   conn,
		engine: New(accessor, conn, hb),
	}
}

// Engine exposes the session's engine, mainly for status reporting.
func (s *Session) Engine() *Engine { return s.engine }

// Run seeds the fingerprint and drives the poll, read, and heartbeat loops
// until one of them fails or ctx is cancelled. The stream is closed before
// Run returns — that both releases the blocked read and, on the initiator,
// tears down the transport process. Returns nil on cancellation, otherwise
// the first failure (wire.ErrClosed, ErrLinkStale, or a write error).
func (s *Session) Run(ctx context.Context) error {
	s.engine.Seed(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 3)
	go func() { errCh <- s.readLoop(ctx) }()
	go func() { errCh <- s.pollLoop(ctx) }()
	go func() { errCh <- s.engine.hb.Run(ctx) }()

	err := <-errCh
	cancel()
	_ = s.conn.Close()
	<-errCh
	<-errCh

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (s *Session) readLoop(ctx context.Context) error {
	for {
		msg, err := s.conn.ReadMsg()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		s.engine.hb.Alive()
		if err := s.engine.HandleMessage(ctx, msg); err != nil {
			return err
		}
	}
}

func (s *Session) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.engine.PollOnce(ctx); err != nil {
				return err
			}
		}
	}
}
