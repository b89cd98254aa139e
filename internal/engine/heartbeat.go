package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alfa07/clipcast/internal/message"
	"github.com/alfa07/clipcast/internal/wire"
)

// ErrLinkStale is returned when the peer has been silent past the staleness
// timeout. On the initiator it triggers a reconnect; on the responder it
// ends the process, to be re-spawned by the initiator's next attempt.
var ErrLinkStale = errors.New("engine: link stale")

// Heartbeat keeps a quiet link alive with pings and declares it stale when
// nothing is heard back in time. Any inbound message counts as liveness, not
// just pongs — a peer busy sending clipboard updates is evidently alive.
type Heartbeat struct {
	conn     *wire.Conn
	interval time.Duration
	timeout  time.Duration

	lastHeard atomic.Int64 // UnixNano
}

// NewHeartbeat creates a Heartbeat for conn.
func NewHeartbeat(conn *wire.Conn, interval, timeout time.Duration) *Heartbeat {
	h := &Heartbeat{conn: conn, interval: interval, timeout: timeout}
	h.Alive()
	return h
}

// Alive records that the peer was just heard from.
func (h *Heartbeat) Alive() {
	h.lastHeard.Store(time.Now().UnixNano())
}

func (h *Heartbeat) silence() time.Duration {
	return time.Since(time.Unix(0, h.lastHeard.Load()))
}

// Run pings and watches for staleness until ctx is cancelled. A ping is only
// sent when the link has been outbound-quiet for at least one interval;
// steady clipboard traffic already proves the channel is writable and the
// peer's replies keep lastHeard fresh.
func (h *Heartbeat) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if silent := h.silence(); silent > h.timeout {
				slog.Warn("peer silent too long, declaring link stale",
					"silent_for", silent.Round(time.Millisecond))
				return ErrLinkStale
			}
			if time.Since(h.conn.LastWrite()) < h.interval {
				continue
			}
			slog.Debug("sending ping")
			if err := h.conn.WriteMsg(&message.Message{Type: message.TypePing}); err != nil {
				return err
			}
		}
	}
}
