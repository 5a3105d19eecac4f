package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/syncbar-io/syncbar/internal/tracker"
)

const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultIdleTick = 10 * time.Second
)

// Emitter receives finished summaries. Implemented by the output sink.
type Emitter interface {
	Emit(Summary) error
}

// Loop turns state updates into emitted summaries. Bursts of updates within
// the debounce window collapse into one render of the newest state; an idle
// tick re-renders so time-relative text ("last seen") stays current.
type Loop struct {
	updates  <-chan tracker.SyncState
	sink     Emitter
	debounce time.Duration
	idleTick time.Duration

	last    *Summary
	current *tracker.SyncState
}

func NewLoop(updates <-chan tracker.SyncState, sink Emitter, debounce, idleTick time.Duration) *Loop {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if idleTick <= 0 {
		idleTick = DefaultIdleTick
	}
	return &Loop{
		updates:  updates,
		sink:     sink,
		debounce: debounce,
		idleTick: idleTick,
	}
}

// Run consumes updates until ctx is cancelled. An emit failure is fatal and
// returned as-is so the caller can map it to an exit code.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.idleTick)
	defer ticker.Stop()

	// Debounce timer starts disarmed.
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case st := <-l.updates:
			l.current = &st
			if !armed {
				timer.Reset(l.debounce)
				armed = true
			}

		case <-timer.C:
			armed = false
			if err := l.emit(); err != nil {
				return err
			}

		case <-ticker.C:
			if armed {
				// A render is due anyway; let the debounce timer fire.
				continue
			}
			if err := l.emit(); err != nil {
				return err
			}
		}
	}
}

func (l *Loop) emit() error {
	if l.current == nil {
		return nil
	}

	summary := Render(l.current, time.Now())
	if l.last != nil && summary == *l.last {
		return nil
	}

	if err := l.sink.Emit(summary); err != nil {
		return fmt.Errorf("render emit: %w", err)
	}
	l.last = &summary

	slog.Debug("rendered", "class", summary.Class, "text", summary.Text)
	return nil
}
