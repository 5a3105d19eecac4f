package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/syncbar-io/syncbar/internal/app"
	"github.com/syncbar-io/syncbar/internal/config"
	"github.com/syncbar-io/syncbar/internal/monitor"
	"github.com/syncbar-io/syncbar/internal/output"
	"github.com/syncbar-io/syncbar/internal/utils"
	"github.com/syncbar-io/syncbar/internal/version"
)

// Exit codes the supervisor can tell apart.
const (
	exitFailure           = 1
	exitOutputClosed      = 3
	exitDaemonUnreachable = 4
)

const configFileName = "config"

var rootCmd = &cobra.Command{
	Use:     "syncbar",
	Short:   "Syncthing status aggregator for status-bar hosts",
	Version: version.Detailed(),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &config.Config{
			BaseURL:       viper.GetString("base_url"),
			APIKey:        viper.GetString("api_key"),
			PollTimeout:   viper.GetDuration("poll_timeout"),
			Debounce:      viper.GetDuration("debounce"),
			IdleTick:      viper.GetDuration("idle_tick"),
			BackoffFloor:  viper.GetDuration("backoff_floor"),
			BackoffCap:    viper.GetDuration("backoff_cap"),
			StartupGrace:  viper.GetDuration("startup_grace"),
			Output:        viper.GetString("output"),
			SignalNum:     viper.GetInt("signal_num"),
			SignalPIDFile: viper.GetString("signal_pidfile"),
			LogLevel:      viper.GetString("log_level"),
			LogFile:       viper.GetString("log_file"),
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		cmd.SilenceUsage = true
		if err := setupLogging(cfg); err != nil {
			return err
		}

		slog.Info("syncbar", "version", version.Version, "revision", version.Revision)

		a, err := app.New(cfg)
		if err != nil {
			return err
		}
		return a.Start(cmd.Context())
	},
}

func init() {
	f := rootCmd.Flags()
	f.SortFlags = false
	f.StringP("url", "u", config.DefaultBaseURL, "Syncthing GUI/API base URL")
	f.StringP("api-key", "k", "", "Syncthing API key, or path to a file holding it")
	f.String("output", "", "Write summaries to this file or named pipe instead of stdout")
	f.Int("signal-num", -1, "Send SIGRTMIN+N to the host after each write (-1 disables)")
	f.String("signal-pidfile", "", "Pidfile of the host process to signal")
	f.Duration("poll-timeout", config.DefaultPollTimeout, "Server-side long-poll window")
	f.Duration("debounce", config.DefaultDebounce, "Render coalescing window")
	f.Duration("idle-tick", config.DefaultIdleTick, "Idle re-render interval")
	f.Duration("backoff-floor", config.DefaultBackoffFloor, "Minimum reconnect delay")
	f.Duration("backoff-cap", config.DefaultBackoffCap, "Maximum reconnect delay")
	f.Duration("startup-grace", 0, "Give up if the first bootstrap keeps failing this long (0 retries forever)")
	f.String("log-level", "info", "Log level (debug|info|warn|error)")
	f.String("log-file", "", "Also log to this file")
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "Config file")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps fatal errors onto distinct exit codes so the host or
// supervisor can tell a dead output channel from an unreachable daemon.
func exitCode(err error) int {
	switch {
	case errors.Is(err, output.ErrClosed):
		return exitOutputClosed
	case errors.Is(err, monitor.ErrStartupUnreachable):
		return exitDaemonUnreachable
	default:
		return exitFailure
	}
}

func loadConfig(cmd *cobra.Command) error {
	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(config.DefaultConfigDir)
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.BindPFlag("base_url", cmd.Flags().Lookup("url"))
	viper.BindPFlag("api_key", cmd.Flags().Lookup("api-key"))
	viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	viper.BindPFlag("signal_num", cmd.Flags().Lookup("signal-num"))
	viper.BindPFlag("signal_pidfile", cmd.Flags().Lookup("signal-pidfile"))
	viper.BindPFlag("poll_timeout", cmd.Flags().Lookup("poll-timeout"))
	viper.BindPFlag("debounce", cmd.Flags().Lookup("debounce"))
	viper.BindPFlag("idle_tick", cmd.Flags().Lookup("idle-tick"))
	viper.BindPFlag("backoff_floor", cmd.Flags().Lookup("backoff-floor"))
	viper.BindPFlag("backoff_cap", cmd.Flags().Lookup("backoff-cap"))
	viper.BindPFlag("startup_grace", cmd.Flags().Lookup("startup-grace"))
	viper.BindPFlag("log_level", cmd.Flags().Lookup("log-level"))
	viper.BindPFlag("log_file", cmd.Flags().Lookup("log-file"))

	viper.SetEnvPrefix("SYNCBAR")
	viper.AutomaticEnv()

	// The env names the original widget generation used keep working.
	viper.BindEnv("api_key", "SYNCBAR_API_KEY", "SYNCTHING_API_KEY")
	viper.BindEnv("base_url", "SYNCBAR_BASE_URL", "SYNCTHING_BASE_URL")

	return nil
}

// setupLogging configures slog. Stdout belongs to the status-bar host, so
// logs go to stderr, plus an optional log file.
func setupLogging(cfg *config.Config) error {
	stderrHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      parseLevel(cfg.LogLevel),
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})

	handler := slog.Handler(stderrHandler)
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		fileHandler := slog.NewTextHandler(file, &slog.HandlerOptions{
			Level: parseLevel(cfg.LogLevel),
		})
		handler = utils.NewFanoutHandler(stderrHandler, fileHandler)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
