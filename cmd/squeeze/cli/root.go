// Package cli implements the squeeze command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/meigma/squeeze"
	"github.com/meigma/squeeze/cmd/squeeze/cli/config"
)

// Build information set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "squeeze",
	Short: "Compress files with block-level progress reporting",
	Long: `Squeeze compresses and decompresses files using gzip or zstd.

Input is encoded in fixed-size blocks, optionally split into independent
streams, and every block is reported as it is written. The output is readable
by standard gzip and zstd tools.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return initConfig() },
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/squeeze/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug logging")
	rootCmd.PersistentFlags().String("progress", config.ProgressAuto, "Progress display: auto, tty, plain, or none")
	mustBind(config.KeyProgress, rootCmd.PersistentFlags().Lookup("progress"))
	rootCmd.Version = version
}

// Execute runs the root command.
func Execute() error {
	ctx, cancel := signalContext()
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
	}
	return err
}

// initConfig loads the config file and environment into viper.
// A missing config file is not an error, so `config set` can create it.
func initConfig() error {
	config.SetDefaults(viper.GetViper())
	viper.SetEnvPrefix("SQUEEZE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		dir, err := config.Dir()
		if err != nil {
			// No home directory: run on defaults, flags and environment.
			return nil
		}
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// loadConfig returns the effective configuration.
func loadConfig() (config.Config, error) {
	return config.Load(viper.GetViper())
}

// newLogger creates the CLI logger. Info and above by default, debug with -v.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// signalContext returns a context that is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// mustBind binds a flag to a viper key. Flags are declared in init, so a
// failure is a programming error.
func mustBind(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %q: %v", key, err))
	}
}

// formatError converts squeeze errors to user-friendly messages.
func formatError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, squeeze.ErrInvalidOption):
		return fmt.Sprintf("Error: invalid option: %v", err)
	case errors.Is(err, squeeze.ErrUnknownFormat):
		return fmt.Sprintf("Error: unknown format: %v (expected gzip or zstd)", err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Sprintf("Error: file not found: %v", err)
	case errors.Is(err, fs.ErrExist):
		return fmt.Sprintf("Error: %v (use --force to overwrite)", err)
	case errors.Is(err, context.Canceled):
		return "Error: operation canceled"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
