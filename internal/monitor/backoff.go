package monitor

import (
	"math/rand/v2"
	"time"
)

const (
	DefaultBackoffFloor = 1 * time.Second
	DefaultBackoffCap   = 60 * time.Second
)

// backoffDelay returns the delay before reconnect attempt n (1-based):
// geometric growth from floor, capped, with jitter so multiple instances
// sharing a daemon don't reconnect in lockstep.
func backoffDelay(floor, cap time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := floor
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= cap {
			delay = cap
			break
		}
	}
	if delay > cap {
		delay = cap
	}

	jitterFactor := 0.75 + (rand.Float64() * 0.5)
	return time.Duration(float64(delay) * jitterFactor)
}
