package tracker

import (
	"github.com/syncbar-io/syncbar/internal/syncthing"
)

// Apply folds one daemon event into the state and returns the result. It is
// a pure function of (state, event): no clock, no I/O, input untouched.
//
// The watermark advances for every event, including unknown types and
// events whose payload fails to decode; a decode failure is returned so the
// caller can log it, but it never blocks the stream.
func Apply(state SyncState, ev syncthing.Event) (SyncState, error) {
	next := state.Clone()
	if ev.ID > next.LastEventID {
		next.LastEventID = ev.ID
	}

	switch ev.Type {
	case syncthing.EventFolderSummary:
		var data syncthing.FolderSummaryData
		if err := ev.Decode(&data); err != nil {
			return next, err
		}
		f := next.folder(data.Folder)
		f.State = normalizeFolderState(data.Summary.State)
		f.NeedItems = data.Summary.NeedTotalItems
		f.NeedBytes = data.Summary.NeedBytes
		if data.Summary.Errors+data.Summary.PullErrors > 0 {
			f.State = FolderError
			if f.LastError == "" {
				f.LastError = "folder has sync errors"
			}
		} else if f.State != FolderError {
			f.LastError = ""
		}
		next.Folders[f.ID] = f

	case syncthing.EventFolderErrors:
		var data syncthing.FolderErrorsData
		if err := ev.Decode(&data); err != nil {
			return next, err
		}
		f := next.folder(data.Folder)
		f.State = FolderError
		if len(data.Errors) > 0 {
			f.LastError = data.Errors[0].Path + ": " + data.Errors[0].Error
		}
		next.Folders[f.ID] = f

	case syncthing.EventFolderCompletion:
		var data syncthing.FolderCompletionData
		if err := ev.Decode(&data); err != nil {
			return next, err
		}
		f := next.folder(data.Folder)
		if data.Completion >= 100 {
			if f.NeedItems == 0 && f.State != FolderError {
				f.State = FolderIdle
				f.LastError = ""
			}
		} else if f.State != FolderError {
			f.State = FolderSyncing
		}
		next.Folders[f.ID] = f

	case syncthing.EventStateChanged:
		var data syncthing.StateChangedData
		if err := ev.Decode(&data); err != nil {
			return next, err
		}
		f := next.folder(data.Folder)
		f.State = normalizeFolderState(data.To)
		if f.State == FolderIdle {
			f.LastError = ""
		}
		next.Folders[f.ID] = f

	case syncthing.EventDeviceConnected:
		var data syncthing.DeviceConnectedData
		if err := ev.Decode(&data); err != nil {
			return next, err
		}
		if data.ID == next.LocalID {
			break
		}
		d := next.device(data.ID)
		d.Connectivity = DeviceConnected
		d.LastSeen = ev.Time
		if data.Name != "" {
			d.Name = data.Name
		}
		next.Devices[d.ID] = d

	case syncthing.EventDeviceDisconnected:
		var data syncthing.DeviceDisconnectedData
		if err := ev.Decode(&data); err != nil {
			return next, err
		}
		if data.ID == next.LocalID {
			break
		}
		d := next.device(data.ID)
		d.Connectivity = DeviceDisconnected
		d.LastSeen = ev.Time
		next.Devices[d.ID] = d

	case syncthing.EventDevicePaused:
		var data syncthing.DeviceStateData
		if err := ev.Decode(&data); err != nil {
			return next, err
		}
		d := next.device(data.Device)
		d.Connectivity = DevicePaused
		next.Devices[d.ID] = d

	case syncthing.EventDeviceResumed:
		var data syncthing.DeviceStateData
		if err := ev.Decode(&data); err != nil {
			return next, err
		}
		d := next.device(data.Device)
		// Resumed means "no longer paused", not "reachable". The device
		// counts as missing until a DeviceConnected arrives.
		d.Connectivity = DeviceDisconnected
		next.Devices[d.ID] = d

	default:
		// Unknown and unhandled event types (ConfigSaved included; the
		// monitor resyncs on it) only advance the watermark.
	}

	return next, nil
}

// NeedsResync reports whether the event invalidates the tracked folder and
// device sets, requiring a fresh bootstrap.
func NeedsResync(ev syncthing.Event) bool {
	return ev.Type == syncthing.EventConfigSaved
}

func (s *SyncState) folder(id string) Folder {
	if f, ok := s.Folders[id]; ok {
		return f
	}
	return Folder{ID: id, State: FolderUnknown}
}

func (s *SyncState) device(id string) Device {
	if d, ok := s.Devices[id]; ok {
		return d
	}
	return Device{ID: id, Connectivity: DeviceDisconnected}
}
