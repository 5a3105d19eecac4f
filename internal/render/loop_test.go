package render

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncbar-io/syncbar/internal/tracker"
)

type recordingEmitter struct {
	mu        sync.Mutex
	summaries []Summary
	fail      error
}

func (r *recordingEmitter) Emit(s Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.summaries = append(r.summaries, s)
	return nil
}

func (r *recordingEmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.summaries)
}

func (r *recordingEmitter) last() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summaries[len(r.summaries)-1]
}

func syncingState(need int64) tracker.SyncState {
	s := tracker.NewState()
	s.Online = true
	s.Reason = ""
	s.Folders["docs"] = tracker.Folder{ID: "docs", State: tracker.FolderSyncing, NeedItems: need}
	return s
}

func TestLoop_DebounceCoalescesBurst(t *testing.T) {
	updates := make(chan tracker.SyncState, 1)
	emitter := &recordingEmitter{}
	loop := NewLoop(updates, emitter, 50*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	// Two updates inside one debounce window.
	updates <- syncingState(1)
	updates <- syncingState(3)

	assert.Eventually(t, func() bool { return emitter.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	// Exactly one render, and it used the latest values.
	assert.Equal(t, 1, emitter.count())
	assert.Contains(t, emitter.last().Text, "3")
}

func TestLoop_UnchangedStateNotRewritten(t *testing.T) {
	updates := make(chan tracker.SyncState, 1)
	emitter := &recordingEmitter{}
	loop := NewLoop(updates, emitter, 10*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	updates <- syncingState(3)
	assert.Eventually(t, func() bool { return emitter.count() == 1 }, 2*time.Second, 5*time.Millisecond)

	// Same state again renders the same summary, which is not re-emitted.
	updates <- syncingState(3)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, emitter.count())
}

func TestLoop_EmitFailureIsFatal(t *testing.T) {
	updates := make(chan tracker.SyncState, 1)
	sinkErr := errors.New("broken pipe")
	emitter := &recordingEmitter{fail: sinkErr}
	loop := NewLoop(updates, emitter, time.Millisecond, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	updates <- syncingState(1)

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, sinkErr)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop on emit failure")
	}
}

func TestLoop_IdleTickRerenders(t *testing.T) {
	updates := make(chan tracker.SyncState, 1)
	emitter := &recordingEmitter{}
	loop := NewLoop(updates, emitter, 5*time.Millisecond, 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	st := tracker.NewState()
	st.Online = true
	st.Reason = ""
	st.Devices["DEV1"] = tracker.Device{
		ID:           "DEV1",
		Connectivity: tracker.DeviceDisconnected,
		LastSeen:     time.Now().Add(-10 * time.Second),
	}
	updates <- st

	assert.Eventually(t, func() bool { return emitter.count() >= 1 }, 2*time.Second, 5*time.Millisecond)

	// "last seen 10 seconds ago" keeps aging; the next tick after the text
	// changes re-emits even though no event arrived.
	assert.Eventually(t, func() bool {
		return emitter.count() >= 2
	}, 5*time.Second, 50*time.Millisecond)
}
