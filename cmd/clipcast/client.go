package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alfa07/clipcast/internal/ipc"
	"github.com/alfa07/clipcast/internal/message"
	"github.com/alfa07/clipcast/internal/supervisor"
	"github.com/alfa07/clipcast/internal/transport"
	"github.com/alfa07/clipcast/internal/wire"
)

func newClientCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "client",
		Short: "Connect to a remote host and keep both clipboards in sync",
		Long: `Spawns "ssh <host>" running "clipcast server" on the far end and keeps the
local and remote clipboards identical. Reconnects automatically on transport
failure or a stale link; runs until interrupted.

The remote host needs the clipcast binary on its PATH (or pass --remote-cmd)
and a working clipboard command (xclip by default).

Config file search order:
  /etc/clipcast/clipcast.toml
  $HOME/.config/clipcast/clipcast.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPCAST_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runClient(v) },
	}

	f := cmd.Flags()
	f.String("host", "", "ssh destination (host, user@host, or ssh config alias)")
	f.StringSlice("ssh-arg", nil, "extra argument passed to ssh (repeatable)")
	f.String("read-clipboard-cmd", "pbpaste", "local command that prints the clipboard")
	f.String("write-clipboard-cmd", "pbcopy", "local command that sets the clipboard from stdin")
	f.String("remote-cmd", "clipcast", "clipcast binary on the remote host")
	f.String("remote-read-clipboard-cmd", "xclip -selection clipboard -o", "remote command that prints the clipboard")
	f.String("remote-write-clipboard-cmd", "xclip -selection clipboard", "remote command that sets the clipboard from stdin")
	f.Duration("min-backoff", supervisor.DefaultMinBackoff, "initial reconnect delay")
	f.Duration("max-backoff", supervisor.DefaultMaxBackoff, "reconnect delay ceiling")
	addSyncFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)
	_ = cmd.MarkFlagRequired("host")

	return cmd
}

func runClient(v *viper.Viper) error {
	setupLogging(v)

	host := v.GetString("host")
	accessor, err := buildAccessor(v)
	if err != nil {
		return err
	}

	slog.Info("clipcast client starting",
		"version", Version,
		"host", host,
		"clipboard", accessor.Name(),
	)

	dialer := &transport.SSH{
		Host:           host,
		Args:           v.GetStringSlice("ssh-arg"),
		RemoteCommand:  v.GetString("remote-cmd"),
		RemoteReadCmd:  v.GetString("remote-read-clipboard-cmd"),
		RemoteWriteCmd: v.GetString("remote-write-clipboard-cmd"),
	}

	sup := supervisor.New(dialer, accessor, supervisor.Config{
		Target:     host,
		MinBackoff: v.GetDuration("min-backoff"),
		MaxBackoff: v.GetDuration("max-backoff"),
		Engine:     engineConfig(v),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// IPC socket so `clipcast status` can inspect us.
	if ln, err := ipc.Listen(); err != nil {
		slog.Warn("IPC socket unavailable", "err", err)
	} else {
		slog.Info("IPC socket listening", "path", ipc.SocketPath())
		go serveStatusIPC(ln, sup)
		go func() {
			<-ctx.Done()
			_ = ln.Close()
		}()
	}

	if err := sup.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("clipcast client stopped")
	return nil
}

func serveStatusIPC(ln net.Listener, sup *supervisor.Supervisor) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go handleStatusConn(conn, sup)
	}
}

func handleStatusConn(conn net.Conn, sup *supervisor.Supervisor) {
	defer conn.Close()
	wc := wire.New(conn)

	msg, err := wc.ReadMsg()
	if err != nil || msg.Type != message.TypeStatus {
		return
	}
	status := sup.Status()
	_ = wc.WriteMsg(&message.Message{
		Type:   message.TypeStatusResponse,
		Status: &status,
	})
}
