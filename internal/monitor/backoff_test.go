package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay_GrowsGeometrically(t *testing.T) {
	floor := 1 * time.Second
	cap := 60 * time.Second

	for attempt, base := range map[int]time.Duration{
		1: 1 * time.Second,
		2: 2 * time.Second,
		3: 4 * time.Second,
		4: 8 * time.Second,
	} {
		d := backoffDelay(floor, cap, attempt)
		assert.GreaterOrEqual(t, d, time.Duration(float64(base)*0.75), "attempt %d", attempt)
		assert.LessOrEqual(t, d, time.Duration(float64(base)*1.25), "attempt %d", attempt)
	}
}

func TestBackoffDelay_Caps(t *testing.T) {
	floor := 1 * time.Second
	cap := 8 * time.Second

	for _, attempt := range []int{5, 10, 100, 1000} {
		d := backoffDelay(floor, cap, attempt)
		assert.LessOrEqual(t, d, time.Duration(float64(cap)*1.25))
		assert.GreaterOrEqual(t, d, time.Duration(float64(cap)*0.75))
	}
}

func TestBackoffDelay_BadAttemptClamped(t *testing.T) {
	d := backoffDelay(time.Second, time.Minute, 0)
	assert.GreaterOrEqual(t, d, 750*time.Millisecond)
	assert.LessOrEqual(t, d, 1250*time.Millisecond)

	d = backoffDelay(time.Second, time.Minute, -3)
	assert.GreaterOrEqual(t, d, 750*time.Millisecond)
}
