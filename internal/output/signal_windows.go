//go:build windows

package output

// SignalNotifier is a no-op on Windows; hosts there poll their input.
type SignalNotifier struct{}

func NewSignalNotifier(offset int, pidFile string) *SignalNotifier {
	return &SignalNotifier{}
}

func (n *SignalNotifier) Notify() error {
	return nil
}
