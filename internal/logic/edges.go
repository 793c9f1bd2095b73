package logic

import "time"

// switchState is the debounce state of one switch input.
type switchState struct {
	stable       bool // true = pressed
	baselined    bool
	hasPending   bool
	pending      bool
	pendingSince time.Time
}

// EdgeDetector turns raw switch levels into debounced press and release edges.
type EdgeDetector struct {
	debounce  time.Duration
	switches  [NumSwitches]switchState
	baselined bool

	startTime     time.Time
	presses       [NumSwitches]int
	lastHeartbeat time.Time
}

// Heartbeat is periodic liveness data for telemetry.
type Heartbeat struct {
	Timestamp time.Time
	Uptime    time.Duration
	Presses   [NumSwitches]int
}

// NewEdgeDetector creates a detector that requires a level to hold for
// debounce before it is accepted. A zero debounce accepts every change.
func NewEdgeDetector(debounce time.Duration, startTime time.Time) *EdgeDetector {
	return &EdgeDetector{
		debounce:      debounce,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process takes one sample of every switch level and returns the edges it
// completes, in switch order. Nothing is reported until every switch has a
// baseline, so switches held at boot do not fire.
func (d *EdgeDetector) Process(now time.Time, levels [NumSwitches]bool) []Edge {
	var edges []Edge
	all := true
	for i := range d.switches {
		s := &d.switches[i]
		if d.step(s, levels[i], now) && d.baselined {
			kind := Released
			if s.stable {
				kind = Pressed
				d.presses[i]++
			}
			edges = append(edges, Edge{Switch: SwitchID(i), Kind: kind})
		}
		all = all && s.baselined
	}
	if !d.baselined {
		d.baselined = all
		return nil
	}
	return edges
}

// step advances one switch and reports whether its stable level changed.
func (d *EdgeDetector) step(s *switchState, level bool, now time.Time) bool {
	if s.baselined && level == s.stable {
		s.hasPending = false
		return false
	}
	if !s.hasPending || s.pending != level {
		s.hasPending = true
		s.pending = level
		s.pendingSince = now
	}
	if now.Sub(s.pendingSince) < d.debounce {
		return false
	}
	s.hasPending = false
	if !s.baselined {
		s.stable = level
		s.baselined = true
		return false
	}
	s.stable = level
	return true
}

// IsBaselined reports whether every switch has a stable initial level.
func (d *EdgeDetector) IsBaselined() bool {
	return d.baselined
}

// Levels returns the debounced level of every switch.
func (d *EdgeDetector) Levels() [NumSwitches]bool {
	var out [NumSwitches]bool
	for i, s := range d.switches {
		out[i] = s.stable
	}
	return out
}

// Presses returns the number of debounced presses per switch.
func (d *EdgeDetector) Presses() [NumSwitches]int {
	return d.presses
}

// CheckHeartbeat returns heartbeat data if interval has elapsed since the
// last heartbeat (or startup). Returns nil before baseline or when interval
// is <= 0.
func (d *EdgeDetector) CheckHeartbeat(now time.Time, interval time.Duration) *Heartbeat {
	if interval <= 0 || !d.baselined {
		return nil
	}
	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}
	d.lastHeartbeat = now
	return &Heartbeat{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Presses:   d.presses,
	}
}
