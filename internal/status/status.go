// Package status provides a thread-safe status tracker for the footctl daemon.
// It is read by the HTTP handlers, the WebSocket feed and telemetry.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/footctl/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	TickMs       int64
	DebounceMs   int64
	HeartbeatMs  int64
	SwitchSource string
	MIDIPort     string
	MIDIChannel  int
	Broker       string
	HTTPAddr     string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Engine        logic.Snapshot
	LEDs          [logic.NumLEDs]bool
	Baselined     bool
	Presses       [logic.NumSwitches]int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config

	// Version increases on every change of the fields above except Now.
	Version uint64
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update records the controller state. Called from the run loop on every
// tick; the version only moves when something actually changed.
func (t *Tracker) Update(eng logic.Snapshot, leds [logic.NumLEDs]bool, baselined bool, presses [logic.NumSwitches]int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.snap.Engine == eng && t.snap.LEDs == leds && t.snap.Baselined == baselined && t.snap.Presses == presses {
		return
	}
	t.snap.Engine = eng
	t.snap.LEDs = leds
	t.snap.Baselined = baselined
	t.snap.Presses = presses
	t.snap.Version++
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.snap.MQTTConnected != connected {
		t.snap.MQTTConnected = connected
		t.snap.Version++
	}
}

// Version returns the current change counter.
func (t *Tracker) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap.Version
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
