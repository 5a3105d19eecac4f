package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/syncbar-io/syncbar/internal/syncthing"
	"github.com/syncbar-io/syncbar/internal/tracker"
)

// ErrStartupUnreachable is returned when the daemon never produced a single
// successful bootstrap within the configured startup grace.
var ErrStartupUnreachable = errors.New("monitor: daemon unreachable at startup")

// API is the slice of the daemon client the monitor drives.
type API interface {
	Snapshot(ctx context.Context) (*syncthing.Snapshot, error)
	Events(ctx context.Context, since int64) ([]syncthing.Event, error)
}

// Config holds the monitor tunables.
type Config struct {
	BackoffFloor time.Duration
	BackoffCap   time.Duration

	// StartupGrace bounds how long the very first bootstrap may keep
	// failing before the monitor gives up with ErrStartupUnreachable.
	// Zero means retry forever.
	StartupGrace time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.BackoffFloor <= 0 {
		out.BackoffFloor = DefaultBackoffFloor
	}
	if out.BackoffCap < out.BackoffFloor {
		out.BackoffCap = DefaultBackoffCap
	}
	return out
}

// Monitor owns the poll loop: it is the only writer of ConnState and the
// only driver of the reducer. Each new state is published to a single-slot
// channel where stale intermediates are dropped in favor of the newest.
type Monitor struct {
	api     API
	cfg     Config
	state   tracker.SyncState
	conn    ConnState
	updates chan tracker.SyncState

	started      time.Time
	everStreamed bool
}

func New(api API, cfg Config) *Monitor {
	return &Monitor{
		api:     api,
		cfg:     cfg.withDefaults(),
		state:   tracker.NewState(),
		conn:    ConnState{Phase: PhaseDisconnected},
		updates: make(chan tracker.SyncState, 1),
	}
}

// Updates is the latest-state channel feeding the render loop.
func (m *Monitor) Updates() <-chan tracker.SyncState {
	return m.updates
}

// Run drives the connection state machine until ctx is cancelled. The only
// non-nil returns besides ctx.Err() are startup failures.
func (m *Monitor) Run(ctx context.Context) error {
	m.started = time.Now()
	m.publish()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch m.conn.Phase {
		case PhaseDisconnected, PhaseConnecting:
			if err := m.bootstrap(ctx); err != nil {
				return err
			}

		case PhaseStreaming:
			if err := m.poll(ctx); err != nil {
				return err
			}

		case PhaseBackingOff:
			if err := m.waitBackoff(ctx); err != nil {
				return err
			}
		}
	}
}

// bootstrap fetches a full snapshot and replaces the tracked state,
// discarding anything stale from before the reconnect.
func (m *Monitor) bootstrap(ctx context.Context) error {
	m.conn = ConnState{Phase: PhaseConnecting, Attempt: m.conn.Attempt}

	snap, err := m.api.Snapshot(ctx)
	if err != nil {
		if ctxDone(ctx, err) {
			return err
		}
		slog.Debug("monitor bootstrap failed", "error", err)
		m.degrade(err, m.conn.Attempt+1)

		if !m.everStreamed && m.cfg.StartupGrace > 0 && time.Since(m.started) > m.cfg.StartupGrace {
			return fmt.Errorf("%w: %w", ErrStartupUnreachable, err)
		}
		return nil
	}

	m.state = tracker.FromSnapshot(snap)
	m.conn = streaming(snap.EventID)
	m.everStreamed = true
	slog.Info("monitor streaming", "since", snap.EventID, "folders", len(snap.Folders), "devices", len(snap.Devices))
	m.publish()
	return nil
}

// poll runs one long-poll cycle and folds any events into the state.
func (m *Monitor) poll(ctx context.Context) error {
	events, err := m.api.Events(ctx, m.conn.Since)
	if err != nil {
		if ctxDone(ctx, err) {
			return err
		}
		slog.Debug("monitor poll failed", "error", err, "since", m.conn.Since)
		m.degrade(err, 1)
		return nil
	}

	if len(events) == 0 {
		// Server-side long-poll window elapsed with nothing new.
		return nil
	}

	// A gap in event ids means the daemon's event buffer wrapped past us;
	// the accumulated state can no longer be trusted.
	if events[0].ID > m.conn.Since+1 && m.conn.Since > 0 {
		slog.Warn("monitor event gap, resyncing", "since", m.conn.Since, "next", events[0].ID)
		m.conn = ConnState{Phase: PhaseConnecting}
		return nil
	}

	resync := false
	for _, ev := range events {
		if tracker.NeedsResync(ev) {
			resync = true
		}
		next, err := tracker.Apply(m.state, ev)
		if err != nil {
			// Single undecodable event: skip it, keep the stream.
			slog.Warn("monitor event skipped", "error", err)
		}
		m.state = next
	}

	m.conn = streaming(m.state.LastEventID)

	if resync {
		slog.Info("monitor config changed, resyncing")
		m.conn = ConnState{Phase: PhaseConnecting}
	}

	m.publish()
	return nil
}

// waitBackoff sleeps out the current backoff, then reconnects. Cancellation
// wins over the timer.
func (m *Monitor) waitBackoff(ctx context.Context) error {
	timer := time.NewTimer(time.Until(m.conn.Until))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	m.conn = ConnState{Phase: PhaseConnecting, Attempt: m.conn.Attempt}
	return nil
}

// degrade flips the published state offline and schedules the next attempt.
// Auth rejection goes straight to the capped interval: a bad key won't fix
// itself in a second.
func (m *Monitor) degrade(err error, attempt int) {
	delay := backoffDelay(m.cfg.BackoffFloor, m.cfg.BackoffCap, attempt)
	reason := "reconnecting"
	if errors.Is(err, syncthing.ErrAuthFailed) {
		delay = m.cfg.BackoffCap
		reason = "api key rejected"
	}

	m.state.Online = false
	m.state.Reason = reason
	m.conn = backingOff(attempt, time.Now().Add(delay))

	slog.Debug("monitor backing off", "attempt", attempt, "delay", delay, "reason", reason)
	m.publish()
}

// publish hands the newest state to the render side. The slot holds one
// state; a stale unconsumed one is replaced rather than queued behind.
func (m *Monitor) publish() {
	st := m.state.Clone()
	for {
		select {
		case m.updates <- st:
			return
		default:
		}
		select {
		case <-m.updates:
		default:
		}
	}
}

func ctxDone(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}
