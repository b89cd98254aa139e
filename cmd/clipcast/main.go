// clipcast: mirror the clipboard between two machines over SSH.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfa07/clipcast/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipcast",
		Short: "Mirror the clipboard between two machines over SSH",
		Long: `clipcast keeps the clipboards of two machines identical. The initiator
("clipcast client") spawns ssh, which runs "clipcast server" on the remote
host; the two sides exchange clipboard changes over the ssh byte stream as
newline-delimited JSON. Encryption and authentication are ssh's job.

Clipboard access goes through configurable external commands (xclip, xsel,
pbcopy/pbpaste, wl-copy/wl-paste, ...) so either end can be X11, Wayland, or
macOS. Pass --native to use the OS clipboard API directly instead.

The client reconnects automatically with capped exponential backoff and keeps
the link alive with pings; use "clipcast status" to inspect a running client.

Config file search order (first found wins):
  /etc/clipcast/clipcast.toml
  $HOME/.config/clipcast/clipcast.toml
  path supplied via --config

All flags can be set via CLIPCAST_<FLAG> env vars or config-file keys.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newClientCmd(),
		newServerCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipcast %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr string) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = logging.ParseLevel("debug")
		} else {
			level = logging.ParseLevel("info")
		}
	}
	logging.Setup(format, level)
}
