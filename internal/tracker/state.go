package tracker

import (
	"strings"
	"time"

	"github.com/syncbar-io/syncbar/internal/syncthing"
)

// FolderState is the aggregate state of one synced folder.
type FolderState string

const (
	FolderIdle     FolderState = "idle"
	FolderScanning FolderState = "scanning"
	FolderSyncing  FolderState = "syncing"
	FolderError    FolderState = "error"
	FolderUnknown  FolderState = "unknown"
)

// Connectivity is the link state of a remote device.
type Connectivity string

const (
	DeviceConnected    Connectivity = "connected"
	DeviceDisconnected Connectivity = "disconnected"
	DevicePaused       Connectivity = "paused"
)

// Status is the overall derived status of the whole setup.
type Status string

const (
	StatusOK           Status = "ok"
	StatusSyncing      Status = "syncing"
	StatusError        Status = "error"
	StatusDisconnected Status = "disconnected"
	StatusUnknown      Status = "unknown"
)

// Folder is the tracked state of one configured folder.
type Folder struct {
	ID        string
	Label     string
	Paused    bool
	State     FolderState
	NeedItems int64
	NeedBytes int64
	LastError string
}

// DisplayName returns the label, falling back to the id.
func (f Folder) DisplayName() string {
	if f.Label != "" {
		return f.Label
	}
	return f.ID
}

// Device is the tracked state of one configured remote device.
type Device struct {
	ID           string
	Name         string
	Connectivity Connectivity
	LastSeen     time.Time
}

// DisplayName returns the name, falling back to a shortened id.
func (d Device) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	if i := strings.IndexByte(d.ID, '-'); i > 0 {
		return d.ID[:i]
	}
	return d.ID
}

// SyncState is the aggregate snapshot the reducer folds events into. It has
// exactly one writer (the monitor loop); everyone else gets copies.
type SyncState struct {
	Folders     map[string]Folder
	Devices     map[string]Device
	LastEventID int64

	// LocalID is the daemon's own device id, excluded from connectivity
	// aggregation.
	LocalID string

	// Online reflects the connection to the daemon itself. When false,
	// Reason says why ("reconnecting", "api key rejected").
	Online bool
	Reason string
}

// NewState returns an empty, offline state.
func NewState() SyncState {
	return SyncState{
		Folders: map[string]Folder{},
		Devices: map[string]Device{},
		Reason:  "connecting",
	}
}

// FromSnapshot builds a fresh state from a full bootstrap, discarding
// anything known before.
func FromSnapshot(snap *syncthing.Snapshot) SyncState {
	s := SyncState{
		Folders:     make(map[string]Folder, len(snap.Folders)),
		Devices:     make(map[string]Device, len(snap.Devices)),
		LastEventID: snap.EventID,
		LocalID:     snap.LocalID,
		Online:      true,
	}

	for _, f := range snap.Folders {
		folder := Folder{
			ID:        f.ID,
			Label:     f.Label,
			Paused:    f.Paused,
			State:     normalizeFolderState(f.State),
			NeedItems: f.NeedItems,
			NeedBytes: f.NeedBytes,
		}
		if f.Errors > 0 {
			folder.State = FolderError
			folder.LastError = "folder has sync errors"
		}
		s.Folders[f.ID] = folder
	}

	for _, d := range snap.Devices {
		if d.ID == snap.LocalID {
			continue
		}
		dev := Device{
			ID:       d.ID,
			Name:     d.Name,
			LastSeen: d.LastSeen,
		}
		switch {
		case d.Paused:
			dev.Connectivity = DevicePaused
		case d.Connected:
			dev.Connectivity = DeviceConnected
		default:
			dev.Connectivity = DeviceDisconnected
		}
		s.Devices[d.ID] = dev
	}

	return s
}

// Clone returns a deep copy. Apply works on copies so readers can hold a
// state across render cycles without races.
func (s SyncState) Clone() SyncState {
	out := s
	out.Folders = make(map[string]Folder, len(s.Folders))
	for k, v := range s.Folders {
		out.Folders[k] = v
	}
	out.Devices = make(map[string]Device, len(s.Devices))
	for k, v := range s.Devices {
		out.Devices[k] = v
	}
	return out
}

// Status derives the overall status. Priority: daemon connection problems
// first (auth rejection shows as error, anything else as disconnected),
// then folder errors, then missing devices, then sync activity.
func (s *SyncState) Status() Status {
	if s == nil || s.Folders == nil {
		return StatusUnknown
	}

	if !s.Online {
		if strings.Contains(s.Reason, "rejected") {
			return StatusError
		}
		return StatusDisconnected
	}

	for _, f := range s.Folders {
		if f.State == FolderError {
			return StatusError
		}
	}

	for _, d := range s.Devices {
		if d.Connectivity == DeviceDisconnected {
			return StatusDisconnected
		}
	}

	for _, f := range s.Folders {
		if f.State == FolderSyncing || f.State == FolderScanning {
			return StatusSyncing
		}
	}

	return StatusOK
}

// NeedTotals sums remaining items and bytes across folders.
func (s *SyncState) NeedTotals() (items, bytes int64) {
	for _, f := range s.Folders {
		items += f.NeedItems
		bytes += f.NeedBytes
	}
	return items, bytes
}

// normalizeFolderState maps the daemon's folder state strings onto the
// tracked set. The daemon has more granular states (sync-preparing,
// scan-waiting, cleaning, ...); they collapse onto the phase they belong to.
func normalizeFolderState(state string) FolderState {
	switch {
	case state == "idle":
		return FolderIdle
	case strings.HasPrefix(state, "scan"):
		return FolderScanning
	case strings.HasPrefix(state, "sync"):
		return FolderSyncing
	case strings.Contains(state, "error"), state == "outofsync":
		return FolderError
	default:
		return FolderUnknown
	}
}
