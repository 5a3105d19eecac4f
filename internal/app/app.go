package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"
	"github.com/syncbar-io/syncbar/internal/config"
	"github.com/syncbar-io/syncbar/internal/monitor"
	"github.com/syncbar-io/syncbar/internal/output"
	"github.com/syncbar-io/syncbar/internal/render"
	"github.com/syncbar-io/syncbar/internal/syncthing"
	"golang.org/x/sync/errgroup"
)

// App wires the daemon client, the monitor loop, the render loop and the
// output sink together and owns their lifecycle.
type App struct {
	cfg     *config.Config
	client  *syncthing.Client
	monitor *monitor.Monitor
	loop    *render.Loop
	sink    *output.Sink
	lock    *flock.Flock
}

func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := syncthing.New(&syncthing.Config{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		PollTimeout: cfg.PollTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create daemon client: %w", err)
	}

	var notify output.Notifier
	if cfg.SignalNum >= 0 && cfg.SignalPIDFile != "" {
		notify = output.NewSignalNotifier(cfg.SignalNum, cfg.SignalPIDFile)
	}

	var sink *output.Sink
	var lock *flock.Flock
	if cfg.Output != "" {
		// Two instances writing the same pipe would interleave lines; a
		// lock next to the output keeps the second one out.
		lock = flock.New(cfg.Output + ".lock")
		sink, err = output.Open(cfg.Output, notify)
		if err != nil {
			return nil, err
		}
	} else {
		sink = output.NewStdout(notify)
	}

	mon := monitor.New(client, monitor.Config{
		BackoffFloor: cfg.BackoffFloor,
		BackoffCap:   cfg.BackoffCap,
		StartupGrace: cfg.StartupGrace,
	})

	loop := render.NewLoop(mon.Updates(), sink, cfg.Debounce, cfg.IdleTick)

	return &App{
		cfg:     cfg,
		client:  client,
		monitor: mon,
		loop:    loop,
		sink:    sink,
		lock:    lock,
	}, nil
}

// Start runs the monitor and render loops until ctx is cancelled or one of
// them fails fatally. Cancellation is a clean shutdown.
func (a *App) Start(ctx context.Context) error {
	slog.Info("syncbar start", "daemon", a.cfg.BaseURL, "output", orStdout(a.cfg.Output))

	if a.lock != nil {
		locked, err := a.lock.TryLock()
		if err != nil {
			return fmt.Errorf("failed to acquire output lock: %w", err)
		}
		if !locked {
			return fmt.Errorf("another instance already writes %s", a.cfg.Output)
		}
	}
	defer a.close()

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return a.monitor.Run(egCtx)
	})

	eg.Go(func() error {
		return a.loop.Run(egCtx)
	})

	err := eg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	slog.Info("syncbar stop")
	return nil
}

func (a *App) close() {
	if err := a.sink.Close(); err != nil {
		slog.Warn("output close failed", "error", err)
	}
	a.client.Close()
	if a.lock != nil {
		if err := a.lock.Unlock(); err != nil {
			slog.Warn("output lock release failed", "error", err)
		}
	}
}

func orStdout(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}
