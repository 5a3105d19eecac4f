//go:build !windows

package output

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// sigrtmin is SIGRTMIN on Linux. Status-bar hosts (waybar, i3blocks)
// conventionally listen on SIGRTMIN+N for refresh requests.
const sigrtmin = 34

// SignalNotifier sends SIGRTMIN+offset to the pid found in pidFile after
// each write, for hosts that re-read their modules only on a signal.
type SignalNotifier struct {
	sig     syscall.Signal
	pidFile string
}

func NewSignalNotifier(offset int, pidFile string) *SignalNotifier {
	return &SignalNotifier{
		sig:     syscall.Signal(sigrtmin + offset),
		pidFile: pidFile,
	}
}

func (n *SignalNotifier) Notify() error {
	data, err := os.ReadFile(n.pidFile)
	if err != nil {
		return fmt.Errorf("read pidfile: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("parse pidfile %s: %w", n.pidFile, err)
	}
	if err := syscall.Kill(pid, n.sig); err != nil {
		return fmt.Errorf("signal pid %d: %w", pid, err)
	}
	return nil
}
