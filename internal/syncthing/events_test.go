package syncthing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDecode_FolderSummary(t *testing.T) {
	ev := Event{
		ID:   1,
		Type: EventFolderSummary,
		Data: json.RawMessage(`{"folder":"docs","summary":{"state":"syncing","needTotalItems":3,"needBytes":1024,"globalFiles":99}}`),
	}

	var data FolderSummaryData
	require.NoError(t, ev.Decode(&data))
	assert.Equal(t, "docs", data.Folder)
	assert.Equal(t, "syncing", data.Summary.State)
	assert.Equal(t, int64(3), data.Summary.NeedTotalItems)
	assert.Equal(t, int64(1024), data.Summary.NeedBytes)
}

func TestEventDecode_FolderCompletion(t *testing.T) {
	ev := Event{
		ID:   2,
		Type: EventFolderCompletion,
		Data: json.RawMessage(`{"folder":"docs","device":"DEV1","completion":47.5,"needBytes":2048,"needItems":4}`),
	}

	var data FolderCompletionData
	require.NoError(t, ev.Decode(&data))
	assert.Equal(t, "DEV1", data.Device)
	assert.InDelta(t, 47.5, data.Completion, 0.001)
	assert.Equal(t, int64(4), data.NeedItems)
}

func TestEventDecode_Malformed(t *testing.T) {
	ev := Event{
		ID:   3,
		Type: EventFolderSummary,
		Data: json.RawMessage(`{"folder":`),
	}

	var data FolderSummaryData
	err := ev.Decode(&data)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "event 3")
}
