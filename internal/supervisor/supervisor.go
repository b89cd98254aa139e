// Package supervisor owns the transport lifecycle on the initiator side:
// establish the transport, run one session over it, tear it down, back off,
// and try again — indefinitely, until cancelled.
package supervisor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/alfa07/clipcast/internal/clip"
	"github.com/alfa07/clipcast/internal/engine"
	"github.com/alfa07/clipcast/internal/message"
	"github.com/alfa07/clipcast/internal/transport"
)

// State is the connection lifecycle state, reported by `clipcast status`.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

const (
	DefaultMinBackoff = time.Second
	DefaultMaxBackoff = 30 * time.Second

	// stableUptime is how long a session must last for the backoff to reset
	// to its minimum. A transport that dies right after connecting keeps
	// climbing towards the ceiling instead.
	stableUptime = 30 * time.Second
)

// Config carries the supervisor and per-session settings.
type Config struct {
	// Target names the peer for logs and status output.
	Target string

	MinBackoff time.Duration
	MaxBackoff time.Duration

	Engine engine.Config
}

func (c Config) withDefaults() Config {
	if c.MinBackoff <= 0 {
		c.MinBackoff = DefaultMinBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = DefaultMaxBackoff
	}
	return c
}

// Supervisor drives connect → session → teardown → backoff cycles. A fresh
// Session is built for every transport connection; no sync state crosses a
// reconnect.
type Supervisor struct {
	dialer   transport.Dialer
	accessor clip.Accessor
	cfg      Config

	mu          sync.RWMutex
	state       State
	startedAt   time.Time
	connectedAt time.Time
	attempts    int
	lastErr     string
}

// New creates a Supervisor. Call Run to start it.
func New(dialer transport.Dialer, accessor clip.Accessor, cfg Config) *Supervisor {
	return &Supervisor{
		dialer:   dialer,
		accessor: accessor,
		cfg:      cfg.withDefaults(),
		state:    StateDisconnected,
	}
}

// State returns the current connection state.
func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Status returns a snapshot for the IPC status channel.
func (s *Supervisor) Status() message.StatusInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return message.StatusInfo{
		State:       string(s.state),
		Target:      s.cfg.Target,
		StartedAt:   s.startedAt,
		ConnectedAt: s.connectedAt,
		Attempts:    s.attempts,
		LastError:   s.lastErr,
	}
}

// Run supervises sessions until ctx is cancelled. Every failure mode —
// transport spawn failure, channel close, link staleness — lands back in the
// backoff-and-retry path; only cancellation returns.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	s.startedAt = time.Now()
	s.mu.Unlock()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.MinBackoff
	bo.MaxInterval = s.cfg.MaxBackoff
	bo.MaxElapsedTime = 0 // never give up
	bo.Reset()

	for {
		s.setState(StateConnecting)
		slog.Info("connecting", "target", s.cfg.Target)

		stream, err := s.dialer.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.setState(StateDisconnected)
				return ctx.Err()
			}
			s.noteFailure(err)
			if err := s.waitBackoff(ctx, bo); err != nil {
				return err
			}
			continue
		}

		s.noteConnected()
		slog.Info("connected", "target", s.cfg.Target)

		start := time.Now()
		sess := engine.NewSession(stream, s.accessor, s.cfg.Engine)
		err = sess.Run(ctx) // closes stream (and so the transport) on return

		if ctx.Err() != nil {
			s.setState(StateDisconnected)
			return ctx.Err()
		}

		uptime := time.Since(start)
		s.noteFailure(err)
		slog.Warn("session ended", "err", err, "uptime", uptime.Round(time.Second))
		if uptime >= stableUptime {
			bo.Reset()
		}
		if err := s.waitBackoff(ctx, bo); err != nil {
			return err
		}
	}
}

func (s *Supervisor) waitBackoff(ctx context.Context, bo backoff.BackOff) error {
	wait := bo.NextBackOff()
	s.setState(StateReconnecting)
	slog.Info("retrying", "in", wait.Round(time.Millisecond))

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		s.setState(StateDisconnected)
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Supervisor) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Supervisor) noteConnected() {
	s.mu.Lock()
	s.state = StateConnected
	s.connectedAt = time.Now()
	s.attempts = 0
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *Supervisor) noteFailure(err error) {
	s.mu.Lock()
	s.attempts++
	if err != nil {
		s.lastErr = err.Error()
	}
	s.connectedAt = time.Time{}
	s.mu.Unlock()
}
