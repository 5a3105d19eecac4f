package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	home, _           = os.UserHomeDir()
	DefaultConfigDir  = filepath.Join(home, ".config", "syncbar")
	DefaultConfigPath = filepath.Join(DefaultConfigDir, "config.json")
)

const (
	DefaultBaseURL      = "http://localhost:8384"
	DefaultPollTimeout  = 60 * time.Second
	DefaultDebounce     = 300 * time.Millisecond
	DefaultIdleTick     = 10 * time.Second
	DefaultBackoffFloor = 1 * time.Second
	DefaultBackoffCap   = 60 * time.Second
)

var (
	ErrNoAPIKey     = errors.New("config: api key missing")
	ErrNoSignalFile = errors.New("config: signal number set without a pidfile")
)

// Config is everything the aggregator core needs, resolved before it
// starts. The cmd layer fills it from flags, env and the config file.
type Config struct {
	// Daemon connection.
	BaseURL string
	// APIKey is the daemon API key or a path to a file holding it.
	APIKey string

	// Tunables.
	PollTimeout  time.Duration
	Debounce     time.Duration
	IdleTick     time.Duration
	BackoffFloor time.Duration
	BackoffCap   time.Duration
	// StartupGrace bounds initial bootstrap retries; zero retries forever.
	StartupGrace time.Duration

	// Output channel. Empty means stdout.
	Output string
	// SignalNum selects SIGRTMIN+N for hosts needing a refresh nudge;
	// negative disables. Requires SignalPIDFile.
	SignalNum     int
	SignalPIDFile string

	// Logging.
	LogLevel string
	LogFile  string
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	if c.SignalNum >= 0 && c.SignalPIDFile == "" {
		return ErrNoSignalFile
	}
	if c.BackoffCap > 0 && c.BackoffFloor > c.BackoffCap {
		return fmt.Errorf("config: backoff floor %s above cap %s", c.BackoffFloor, c.BackoffCap)
	}
	return nil
}
