package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alfa07/clipcast/internal/clip"
	"github.com/alfa07/clipcast/internal/engine"
	"github.com/alfa07/clipcast/internal/logging"
)

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPCAST_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → CLIPCAST_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("clipcast")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/clipcast/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(fmt.Sprintf("%s/.config/clipcast", home))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPCAST")
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addSyncFlags adds the timing flags shared by client and server.
func addSyncFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Duration("poll-interval", engine.DefaultPollInterval, "how often to sample the clipboard")
	f.Duration("ping-interval", engine.DefaultPingInterval, "how often to ping a quiet link")
	f.Duration("stale-timeout", engine.DefaultStaleTimeout, "silence after which the link is considered dead")
	f.Duration("clipboard-timeout", clip.DefaultTimeout, "timeout for a single clipboard command invocation")
	f.Bool("native", false, "use the OS clipboard API instead of external commands")
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	resolveLogging(logging.IsTTY(os.Stderr), v.GetString("log-format"), v.GetString("log-level"))
}

// engineConfig assembles the per-session timing config from viper.
func engineConfig(v *viper.Viper) engine.Config {
	return engine.Config{
		PollInterval: v.GetDuration("poll-interval"),
		PingInterval: v.GetDuration("ping-interval"),
		StaleTimeout: v.GetDuration("stale-timeout"),
	}
}

// buildAccessor constructs the clipboard accessor selected by flags.
func buildAccessor(v *viper.Viper) (clip.Accessor, error) {
	if v.GetBool("native") {
		return clip.NewNative()
	}
	return clip.NewCommand(
		v.GetString("read-clipboard-cmd"),
		v.GetString("write-clipboard-cmd"),
		v.GetDuration("clipboard-timeout"),
	)
}
