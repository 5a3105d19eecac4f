package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/syncbar-io/syncbar/internal/tracker"
)

// Summary is the fixed-shape render the status-bar host consumes. Class is
// keyed to the overall status so the host can style it.
type Summary struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
	Class   string `json:"class"`
}

// Render serializes a state into a summary. It never fails: a state it
// can't make sense of renders as unknown.
func Render(state *tracker.SyncState, now time.Time) Summary {
	status := state.Status()
	if status == tracker.StatusUnknown {
		return Summary{Text: "Syncthing", Class: string(tracker.StatusUnknown)}
	}

	return Summary{
		Text:    text(state, status),
		Tooltip: tooltip(state, status, now),
		Class:   string(status),
	}
}

func text(state *tracker.SyncState, status tracker.Status) string {
	switch status {
	case tracker.StatusOK:
		return "Synced"
	case tracker.StatusSyncing:
		items, bytes := state.NeedTotals()
		if bytes > 0 {
			return fmt.Sprintf("Syncing %d (%s)", items, humanize.IBytes(uint64(bytes)))
		}
		return fmt.Sprintf("Syncing %d", items)
	case tracker.StatusError:
		if !state.Online {
			return "Syncthing error"
		}
		return "Sync error"
	case tracker.StatusDisconnected:
		if !state.Online {
			return "Syncthing offline"
		}
		return "Disconnected"
	default:
		return "Syncthing"
	}
}

func tooltip(state *tracker.SyncState, status tracker.Status, now time.Time) string {
	var lines []string

	if !state.Online {
		lines = append(lines, "syncthing: "+state.Reason)
	}

	for _, f := range sortedFolders(state) {
		line := fmt.Sprintf("%s: %s", f.DisplayName(), f.State)
		if f.NeedItems > 0 || f.NeedBytes > 0 {
			line += fmt.Sprintf(" (%d items, %s)", f.NeedItems, humanize.IBytes(uint64(f.NeedBytes)))
		}
		if f.State == tracker.FolderError && f.LastError != "" {
			line += " (" + f.LastError + ")"
		}
		lines = append(lines, line)
	}

	for _, d := range sortedDevices(state) {
		line := fmt.Sprintf("%s: %s", d.DisplayName(), d.Connectivity)
		if d.Connectivity == tracker.DeviceDisconnected && !d.LastSeen.IsZero() {
			line += " (last seen " + humanize.RelTime(d.LastSeen, now, "ago", "from now") + ")"
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

func sortedFolders(state *tracker.SyncState) []tracker.Folder {
	out := make([]tracker.Folder, 0, len(state.Folders))
	for _, f := range state.Folders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedDevices(state *tracker.SyncState) []tracker.Device {
	out := make([]tracker.Device, 0, len(state.Devices))
	for _, d := range state.Devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
