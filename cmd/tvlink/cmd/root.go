// Package cmd implements the CLI commands for tvlink.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tvlink/tvlink/internal/config"
	"github.com/tvlink/tvlink/internal/observability"
	"github.com/tvlink/tvlink/internal/version"
)

// cfgFile holds the config file path from the CLI flag.
var cfgFile string

// appCfg and appLog are initialized by the persistent pre-run and shared by
// all subcommands.
var (
	appCfg *config.Config
	appLog *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "tvlink",
	Short:   "Live-TV client engine for Xtream, Stalker and M3U backends",
	Version: version.Short(),
	Long: `tvlink connects to IPTV backends speaking the Xtream Codes HTTP API,
the Stalker/MAG portal protocol, or plain M3U playlists, and exposes their
catalogs and stream addresses through one uniform interface.

Connection profiles are saved locally and selected by name.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return initApp()
	}

	// Flags are not bound to viper; explicitly set flags override the
	// config/env values so precedence stays CLI > env > file > default.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., /etc/tvlink, $HOME/.tvlink)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
}

// initApp loads configuration and installs the process logger.
func initApp() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfg.Logging.Level = flagOverride(rootCmd.PersistentFlags().Lookup("log-level"), cfg.Logging.Level)
	cfg.Logging.Format = flagOverride(rootCmd.PersistentFlags().Lookup("log-format"), cfg.Logging.Format)

	appCfg = cfg
	appLog = observability.NewLogger(cfg.Logging)
	observability.SetDefault(appLog)
	return nil
}

// flagOverride returns the flag's value only when the user set it
// explicitly, keeping the precedence CLI > env > config > default.
func flagOverride(flag *pflag.Flag, current string) string {
	if flag != nil && flag.Changed {
		return flag.Value.String()
	}
	return current
}
