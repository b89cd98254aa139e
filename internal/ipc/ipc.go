// Package ipc provides the local Unix-socket channel that `clipcast status`
// uses to query a running client daemon, instead of the daemon exposing a
// network surface. The socket speaks the same newline-delimited JSON framing
// as the peer link, restricted to the status message kinds.
package ipc

import (
	"net"
	"os"
	"path/filepath"
)

// SocketPath returns the path for the IPC socket.
//
// Override with $CLIPCAST_SOCKET; otherwise $XDG_RUNTIME_DIR/clipcast.sock
// when available, falling back to the temp directory.
func SocketPath() string {
	if s := os.Getenv("CLIPCAST_SOCKET"); s != "" {
		return s
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "clipcast.sock")
	}
	return filepath.Join(os.TempDir(), "clipcast.sock")
}

// IsRunning reports whether a client daemon appears to be listening on the
// IPC socket. A cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := net.Dial("unix", SocketPath())
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a net.Listener on the IPC socket path, removing any stale
// socket left by a crashed run first.
func Listen() (net.Listener, error) {
	path := SocketPath()
	_ = os.Remove(path)
	return net.Listen("unix", path)
}

// Dial connects to the IPC socket.
func Dial() (net.Conn, error) {
	return net.Dial("unix", SocketPath())
}
