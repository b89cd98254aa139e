package ipc

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alfa07/clipcast/internal/message"
	"github.com/alfa07/clipcast/internal/wire"
)

func TestSocketPathOverride(t *testing.T) {
	t.Setenv("CLIPCAST_SOCKET", "/tmp/custom-clipcast.sock")
	require.Equal(t, "/tmp/custom-clipcast.sock", SocketPath())
}

func TestIsRunningWithoutListener(t *testing.T) {
	t.Setenv("CLIPCAST_SOCKET", filepath.Join(t.TempDir(), "absent.sock"))
	require.False(t, IsRunning())
}

func TestStatusRoundTrip(t *testing.T) {
	t.Setenv("CLIPCAST_SOCKET", filepath.Join(t.TempDir(), "ipc.sock"))

	ln, err := Listen()
	require.NoError(t, err)
	defer ln.Close()
	require.True(t, IsRunning())

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		wc := wire.New(conn)
		msg, err := wc.ReadMsg()
		if err != nil || msg.Type != message.TypeStatus {
			return
		}
		_ = wc.WriteMsg(&message.Message{
			Type:   message.TypeStatusResponse,
			Status: &message.StatusInfo{State: "connected", Target: "devbox"},
		})
	}()

	conn, err := Dial()
	require.NoError(t, err)
	defer conn.Close()

	wc := wire.New(conn)
	require.NoError(t, wc.WriteMsg(&message.Message{Type: message.TypeStatus}))

	resp, err := wc.ReadMsg()
	require.NoError(t, err)
	require.Equal(t, message.TypeStatusResponse, resp.Type)
	require.NotNil(t, resp.Status)
	require.Equal(t, "connected", resp.Status.State)
	require.Equal(t, "devbox", resp.Status.Target)
}

func TestListenReplacesStaleSocket(t *testing.T) {
	t.Setenv("CLIPCAST_SOCKET", filepath.Join(t.TempDir(), "stale.sock"))

	ln, err := Listen()
	require.NoError(t, err)
	// Simulate a crash: the socket file is left behind.
	ln.Close()

	ln2, err := Listen()
	require.NoError(t, err)
	defer ln2.Close()
	require.True(t, IsRunning())
}
