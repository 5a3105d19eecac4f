package output

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncbar-io/syncbar/internal/render"
)

type failingWriter struct{ err error }

func (w *failingWriter) Write(p []byte) (int, error) { return 0, w.err }

// chunkRecorder records each Write call separately to prove a summary goes
// out in one call.
type chunkRecorder struct {
	mu     sync.Mutex
	chunks [][]byte
}

func (w *chunkRecorder) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chunks = append(w.chunks, append([]byte(nil), p...))
	return len(p), nil
}

type countingNotifier struct{ calls int }

func (n *countingNotifier) Notify() error { n.calls++; return nil }

func TestEmit_WritesSingleJSONLine(t *testing.T) {
	rec := &chunkRecorder{}
	sink := NewWriter(rec, nil)

	err := sink.Emit(render.Summary{Text: "Synced", Tooltip: "docs: idle", Class: "ok"})
	require.NoError(t, err)

	require.Len(t, rec.chunks, 1, "one summary must be one write")
	line := rec.chunks[0]
	assert.True(t, bytes.HasSuffix(line, []byte("\n")))

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(line, &decoded))
	assert.Equal(t, "Synced", decoded["text"])
	assert.Equal(t, "docs: idle", decoded["tooltip"])
	assert.Equal(t, "ok", decoded["class"])
}

func TestEmit_TooltipNewlinesStayEscaped(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriter(&buf, nil)

	require.NoError(t, sink.Emit(render.Summary{Text: "x", Tooltip: "a\nb", Class: "ok"}))

	// Exactly one physical line even with a multi-line tooltip.
	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestEmit_WriteFailureIsClosed(t *testing.T) {
	sink := NewWriter(&failingWriter{err: errors.New("broken pipe")}, nil)

	err := sink.Emit(render.Summary{Text: "x"})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEmit_NotifiesAfterWrite(t *testing.T) {
	var buf bytes.Buffer
	n := &countingNotifier{}
	sink := NewWriter(&buf, n)

	require.NoError(t, sink.Emit(render.Summary{Text: "x"}))
	require.NoError(t, sink.Emit(render.Summary{Text: "y"}))
	assert.Equal(t, 2, n.calls)
}

func TestEmit_NoNotifyOnFailedWrite(t *testing.T) {
	n := &countingNotifier{}
	sink := NewWriter(&failingWriter{err: errors.New("gone")}, n)

	_ = sink.Emit(render.Summary{Text: "x"})
	assert.Equal(t, 0, n.calls)
}
