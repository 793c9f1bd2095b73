package logic

import (
	"math"
	"sync"
	"time"
)

// Calibrator learns the physical range of one analog input, normalizes raw
// samples into [0, MaxValue], median-filters them and rate-limits emission.
//
// AddSample may be called from the sampling goroutine while the remaining
// methods run on the main loop; every method holds mu for its whole body so
// no reader ever observes a half-updated window.
type Calibrator struct {
	mu sync.Mutex

	observedMin uint16
	observedMax uint16
	window      medianWindow
	enabled     bool

	lastEmitted uint16
	lastSentAt  time.Time

	// stableSpread is the largest highest-lowest spread accepted as stable.
	stableSpread uint16
}

// NewCalibrator creates a calibrator in its unready state. A stableSpread of
// zero requires bit-exact agreement across the whole filter window.
func NewCalibrator(stableSpread uint16) *Calibrator {
	c := &Calibrator{stableSpread: stableSpread}
	c.resetLocked()
	return c
}

// AddSample widens the observed range to include raw and pushes the
// normalized, inverted value into the filter window. Samples that arrive
// while the observed range is still zero cannot be normalized and are dropped.
func (c *Calibrator) AddSample(raw uint16) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if raw < c.observedMin {
		c.observedMin = raw
	}
	if raw > c.observedMax {
		c.observedMax = raw
	}

	span := uint32(c.observedMax) - uint32(c.observedMin)
	if span == 0 {
		return
	}

	// Deadband of span/128 at both ends absorbs drift of the learned extremes.
	theta := span >> 7
	offset := uint32(raw) - uint32(c.observedMin)
	if offset < theta {
		offset = 0
	} else if offset > span-theta {
		offset = span
	}

	scaled := offset * MaxValue / span
	c.window.add(uint16(MaxValue - scaled))
}

// IsStable reports whether the filter window is full and its spread is
// within the stability limit. It does not change the enabled state.
func (c *Calibrator) IsStable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stableLocked()
}

// DetectStable latches the channel enabled once it is stable and reports
// whether it is enabled.
func (c *Calibrator) DetectStable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled && c.stableLocked() {
		c.enabled = true
	}
	return c.enabled
}

func (c *Calibrator) stableLocked() bool {
	if !c.window.full() {
		return false
	}
	return c.window.highest()-c.window.lowest() <= c.stableSpread
}

// Enabled reports whether calibration has completed.
func (c *Calibrator) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// CurrentValue returns the filtered value, or 0 while the channel is disabled.
func (c *Calibrator) CurrentValue() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return 0
	}
	v, _ := c.window.median()
	return v
}

// EmitIfChanged returns the filtered value when the channel is enabled, the
// value differs from the last emission and at least cooldown has passed
// since that emission.
func (c *Calibrator) EmitIfChanged(now time.Time, cooldown time.Duration) (ControlValue, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return ControlValue{}, false
	}
	v, ok := c.window.median()
	if !ok || v == c.lastEmitted {
		return ControlValue{}, false
	}
	if !c.lastSentAt.IsZero() && now.Sub(c.lastSentAt) < cooldown {
		return ControlValue{}, false
	}

	c.lastEmitted = v
	c.lastSentAt = now
	return SplitValue(v), true
}

// Reset returns the calibrator to its initial unready state.
func (c *Calibrator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Calibrator) resetLocked() {
	c.observedMin = math.MaxUint16
	c.observedMax = 0
	c.window.clear()
	c.enabled = false
	c.lastEmitted = 0
	c.lastSentAt = time.Time{}
}

// Range returns the observed raw extremes. ok is false before the first sample.
func (c *Calibrator) Range() (lo, hi uint16, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.observedMin > c.observedMax {
		return 0, 0, false
	}
	return c.observedMin, c.observedMax, true
}
