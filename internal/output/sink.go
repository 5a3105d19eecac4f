package output

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"github.com/syncbar-io/syncbar/internal/render"
)

// ErrClosed marks the output channel as gone. The host exited; there is
// nobody left to render for, so callers treat this as fatal.
var ErrClosed = errors.New("output: channel closed")

// Notifier nudges a host that won't re-read its input on its own.
type Notifier interface {
	Notify() error
}

// Sink writes rendered summaries as single JSON lines. Each summary goes
// out in exactly one Write call so pipe readers never see a partial line.
type Sink struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	notify Notifier
}

// NewStdout returns a sink writing to standard output.
func NewStdout(notify Notifier) *Sink {
	return &Sink{w: os.Stdout, notify: notify}
}

// Open returns a sink writing to the file or named pipe at path. Opening a
// FIFO blocks until the host opens the read side, which is the behavior a
// status-bar module wants at startup.
func Open(path string, notify Notifier) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("output open %s: %w", path, err)
	}
	return &Sink{w: f, closer: f, notify: notify}, nil
}

// NewWriter returns a sink over an arbitrary writer.
func NewWriter(w io.Writer, notify Notifier) *Sink {
	return &Sink{w: w, notify: notify}
}

// Emit writes one summary line. Any write failure means the host is gone
// and comes back wrapped in ErrClosed.
func (s *Sink) Emit(summary render.Summary) error {
	line, err := json.Marshal(summary)
	if err != nil {
		// Summary is three strings; this does not happen.
		return fmt.Errorf("output encode: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	_, werr := s.w.Write(line)
	s.mu.Unlock()
	if werr != nil {
		return fmt.Errorf("%w: %w", ErrClosed, werr)
	}

	if s.notify != nil {
		if err := s.notify.Notify(); err != nil {
			slog.Warn("output host notify failed", "error", err)
		}
	}
	return nil
}

func (s *Sink) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
