package syncthing

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event type tags emitted by the daemon. Anything else is carried through
// undecoded and ignored by consumers.
const (
	EventFolderSummary      = "FolderSummary"
	EventFolderErrors       = "FolderErrors"
	EventFolderCompletion   = "FolderCompletion"
	EventStateChanged       = "StateChanged"
	EventDeviceConnected    = "DeviceConnected"
	EventDeviceDisconnected = "DeviceDisconnected"
	EventDevicePaused       = "DevicePaused"
	EventDeviceResumed      = "DeviceResumed"
	EventConfigSaved        = "ConfigSaved"
)

// Event is a single entry from /rest/events. Data stays raw until a typed
// decoder is asked for it, so unknown event types cost nothing.
type Event struct {
	ID   int64           `json:"id"`
	Time time.Time       `json:"time"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// FolderSummaryData is the payload of a FolderSummary event.
type FolderSummaryData struct {
	Folder  string `json:"folder"`
	Summary struct {
		State          string `json:"state"`
		NeedTotalItems int64  `json:"needTotalItems"`
		NeedBytes      int64  `json:"needBytes"`
		Errors         int64  `json:"errors"`
		PullErrors     int64  `json:"pullErrors"`
	} `json:"summary"`
}

// FolderErrorsData is the payload of a FolderErrors event.
type FolderErrorsData struct {
	Folder string `json:"folder"`
	Errors []struct {
		Path  string `json:"path"`
		Error string `json:"error"`
	} `json:"errors"`
}

// FolderCompletionData is the payload of a FolderCompletion event.
type FolderCompletionData struct {
	Folder     string  `json:"folder"`
	Device     string  `json:"device"`
	Completion float64 `json:"completion"`
	NeedItems  int64   `json:"needItems"`
	NeedBytes  int64   `json:"needBytes"`
}

// StateChangedData is the payload of a StateChanged event.
type StateChangedData struct {
	Folder string `json:"folder"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// DeviceConnectedData is the payload of a DeviceConnected event.
type DeviceConnectedData struct {
	ID   string `json:"id"`
	Name string `json:"deviceName"`
}

// DeviceDisconnectedData is the payload of a DeviceDisconnected event.
type DeviceDisconnectedData struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// DeviceStateData is the payload of DevicePaused and DeviceResumed events.
type DeviceStateData struct {
	Device string `json:"device"`
}

// Decode unmarshals the event payload into out. Failures are Malformed and
// scoped to this single event.
func (e *Event) Decode(out any) error {
	if err := jsonUnmarshal(e.Data, out); err != nil {
		return fmt.Errorf("event %d (%s): %w: %w", e.ID, e.Type, ErrMalformed, err)
	}
	return nil
}
