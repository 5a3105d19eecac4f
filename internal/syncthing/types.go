package syncthing

import (
	"time"
)

// REST payloads. Only the fields this client reads are declared; the daemon
// sends plenty more and unknown fields must keep decoding.

type systemStatus struct {
	MyID string `json:"myID"`
}

type systemConfig struct {
	Folders []FolderConfig `json:"folders"`
	Devices []DeviceConfig `json:"devices"`
}

// FolderConfig is a folder entry from /rest/system/config.
type FolderConfig struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Paused bool   `json:"paused"`
}

// DeviceConfig is a device entry from /rest/system/config.
type DeviceConfig struct {
	DeviceID string `json:"deviceID"`
	Name     string `json:"name"`
	Paused   bool   `json:"paused"`
}

type systemConnections struct {
	Connections map[string]ConnectionInfo `json:"connections"`
}

// ConnectionInfo is a per-device entry from /rest/system/connections.
type ConnectionInfo struct {
	Connected bool      `json:"connected"`
	Paused    bool      `json:"paused"`
	At        time.Time `json:"at"`
}

// DBStatus is the relevant subset of /rest/db/status for one folder.
type DBStatus struct {
	State          string `json:"state"`
	NeedTotalItems int64  `json:"needTotalItems"`
	NeedBytes      int64  `json:"needBytes"`
	Errors         int64  `json:"errors"`
	PullErrors     int64  `json:"pullErrors"`
}

// Snapshot is a full-state bootstrap: folder and device configuration merged
// with live status, plus the event watermark current at fetch time.
type Snapshot struct {
	LocalID string
	Folders []FolderSnapshot
	Devices []DeviceSnapshot
	EventID int64
	At      time.Time
}

// FolderSnapshot combines a folder's config entry with its db status.
type FolderSnapshot struct {
	ID        string
	Label     string
	Paused    bool
	State     string
	NeedItems int64
	NeedBytes int64
	Errors    int64
}

// DeviceSnapshot combines a device's config entry with its connection info.
type DeviceSnapshot struct {
	ID        string
	Name      string
	Connected bool
	Paused    bool
	LastSeen  time.Time
}
