package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alfa07/clipcast/internal/engine"
	"github.com/alfa07/clipcast/internal/transport"
	"github.com/alfa07/clipcast/internal/wire"
)

func newServerCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the responder over stdin/stdout (spawned via ssh)",
		Long: `Speaks the sync protocol over stdin/stdout. Normally not run by hand: the
initiator spawns it on the remote host through ssh. The process ends when its
input ends or the link goes stale; the initiator re-spawns it on reconnect.

All logging goes to stderr — stdout carries the protocol.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runServer(v) },
	}

	f := cmd.Flags()
	f.String("read-clipboard-cmd", "xclip -selection clipboard -o", "command that prints the clipboard")
	f.String("write-clipboard-cmd", "xclip -selection clipboard", "command that sets the clipboard from stdin")
	addSyncFlags(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runServer(v *viper.Viper) error {
	setupLogging(v)

	accessor, err := buildAccessor(v)
	if err != nil {
		return err
	}

	slog.Info("clipcast server starting",
		"version", Version,
		"clipboard", accessor.Name(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess := engine.NewSession(transport.Stdio(), accessor, engineConfig(v))
	err = sess.Run(ctx)

	// Link loss is the normal way a responder ends: the initiator tears the
	// transport down and spawns a fresh one on reconnect.
	switch {
	case err == nil:
		slog.Info("clipcast server stopped")
	case errors.Is(err, wire.ErrClosed):
		slog.Info("input closed, exiting")
	case errors.Is(err, engine.ErrLinkStale):
		slog.Info("link stale, exiting")
	default:
		return err
	}
	return nil
}
