package supervisor

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alfa07/clipcast/internal/engine"
	"github.com/alfa07/clipcast/internal/transport"
)

// stubClip is a minimal accessor for supervisor tests.
type stubClip struct {
	mu      sync.Mutex
	content string
}

func (s *stubClip) Name() string { return "stub" }

func (s *stubClip) Read(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content, nil
}

func (s *stubClip) Write(_ context.Context, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = content
	return nil
}

type dialOutcome struct {
	stream transport.Stream
	err    error
}

// scriptDialer hands out pre-scripted dial outcomes.
type scriptDialer struct {
	outcomes chan dialOutcome
	dials    atomic.Int32
}

func newScriptDialer() *scriptDialer {
	return &scriptDialer{outcomes: make(chan dialOutcome, 8)}
}

func (d *scriptDialer) Dial(ctx context.Context) (transport.Stream, error) {
	d.dials.Add(1)
	select {
	case o := <-d.outcomes:
		return o.stream, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// silentPeer returns a stream whose peer end drains writes but never
// replies, so the session dies by staleness unless closed first.
func silentPeer(t *testing.T) (transport.Stream, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	go func() { _, _ = io.Copy(io.Discard, b) }()
	return a, b
}

func testConfig() Config {
	return Config{
		Target:     "testhost",
		MinBackoff: 10 * time.Millisecond,
		MaxBackoff: 50 * time.Millisecond,
		Engine: engine.Config{
			PollInterval: 10 * time.Millisecond,
			PingInterval: 20 * time.Millisecond,
			StaleTimeout: 150 * time.Millisecond,
		},
	}
}

func TestSupervisorRetriesAfterDialFailure(t *testing.T) {
	dialer := newScriptDialer()
	sup := New(dialer, &stubClip{}, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- sup.Run(ctx) }()

	dialer.outcomes <- dialOutcome{err: errors.New("ssh: connection refused")}
	dialer.outcomes <- dialOutcome{err: errors.New("ssh: connection refused")}

	// Two failures consumed means one backoff period already elapsed.
	require.Eventually(t, func() bool {
		return dialer.dials.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	st := sup.Status()
	require.Equal(t, "testhost", st.Target)
	require.Contains(t, st.LastError, "connection refused")
	require.Positive(t, st.Attempts)

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	require.Equal(t, StateDisconnected, sup.State())
}

func TestSupervisorReconnectsAfterSessionEnds(t *testing.T) {
	dialer := newScriptDialer()
	sup := New(dialer, &stubClip{}, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- sup.Run(ctx) }()

	stream, peer := silentPeer(t)
	dialer.outcomes <- dialOutcome{stream: stream}

	require.Eventually(t, func() bool {
		return sup.State() == StateConnected
	}, 2*time.Second, 5*time.Millisecond, "never reached connected")

	// Kill the transport; the supervisor must come back for another dial.
	_ = peer.Close()
	require.Eventually(t, func() bool {
		return dialer.dials.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond, "no reconnect attempt")

	// And a second session works too.
	stream2, _ := silentPeer(t)
	dialer.outcomes <- dialOutcome{stream: stream2}
	require.Eventually(t, func() bool {
		return sup.State() == StateConnected
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}

func TestSupervisorStaleSessionTriggersReconnect(t *testing.T) {
	dialer := newScriptDialer()
	sup := New(dialer, &stubClip{}, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- sup.Run(ctx) }()

	// The peer never answers pings, so the session goes stale on its own.
	stream, _ := silentPeer(t)
	dialer.outcomes <- dialOutcome{stream: stream}

	require.Eventually(t, func() bool {
		return dialer.dials.Load() >= 2
	}, 3*time.Second, 10*time.Millisecond, "staleness did not trigger a reconnect")

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
}

func TestSupervisorCancelDuringBackoff(t *testing.T) {
	dialer := newScriptDialer()
	cfg := testConfig()
	cfg.MinBackoff = time.Hour // cancellation must not wait this out
	cfg.MaxBackoff = time.Hour
	sup := New(dialer, &stubClip{}, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- sup.Run(ctx) }()

	dialer.outcomes <- dialOutcome{err: errors.New("ssh: no route to host")}
	require.Eventually(t, func() bool {
		return sup.State() == StateReconnecting
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancellation did not interrupt the backoff wait")
	}
	require.Equal(t, StateDisconnected, sup.State())
}
