package capture

import (
	"time"
)

// rateTracker measures how fast frames are persisted over a sliding window.
type rateTracker struct {
	window time.Duration
	sizes  []int
	times  []time.Time
}

func newRateTracker(window time.Duration) *rateTracker {
	return &rateTracker{
		window: window,
	}
}

// add accounts for one persisted frame of sizeBytes payload.
func (rt *rateTracker) add(sizeBytes int, timestamp time.Time) {
	rt.sizes = append(rt.sizes, sizeBytes)
	rt.times = append(rt.times, timestamp)

	cutoff := timestamp.Add(-rt.window)
	i := 0
	for ; i < len(rt.times); i++ {
		if rt.times[i].After(cutoff) {
			break
		}
	}
	rt.sizes = rt.sizes[i:]
	rt.times = rt.times[i:]
}

func (rt *rateTracker) span() float64 {
	if len(rt.times) < 2 {
		return 0
	}
	return rt.times[len(rt.times)-1].Sub(rt.times[0]).Seconds()
}

// frameRate returns frames per second within the window.
func (rt *rateTracker) frameRate() float64 {
	d := rt.span()
	if d <= 0 {
		return 0
	}
	return float64(len(rt.times)-1) / d
}

// byteRate returns payload bytes per second within the window.
func (rt *rateTracker) byteRate() float64 {
	d := rt.span()
	if d <= 0 {
		return 0
	}
	total := 0
	for _, b := range rt.sizes {
		total += b
	}
	return float64(total) / d
}
