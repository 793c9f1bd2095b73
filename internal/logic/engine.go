package logic

import "time"

// Options tunes an Engine.
type Options struct {
	// StableSpread is the filter spread accepted as calibrated (0 = bit-exact).
	StableSpread uint16
	// SendCooldown is the minimum time between two emissions of one channel.
	SendCooldown time.Duration
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		StableSpread: 0,
		SendCooldown: 10 * time.Millisecond,
	}
}

// Engine owns the per-switch and per-channel state and runs the workflow.
// Every method except AddSample must be called from a single goroutine.
type Engine struct {
	opts Options

	calibrators [NumChannels]*Calibrator
	configs     [NumSwitches]SwitchConfig
	runtimes    [NumSwitches]SwitchRuntime

	state     WorkflowState
	enteredAt time.Time
	target    SwitchID
	saved     SwitchConfig // target config on entry to Program

	flash flashFeedback
}

// flashFeedback blinks the most recently changed slot in Normal.
type flashFeedback struct {
	active bool
	slot   int
	since  time.Time
}

// NewEngine creates an engine with the given persisted configs. It starts in
// SelectTarget with every calibrator unready so the operator sees the
// calibration status first.
func NewEngine(configs [NumSwitches]SwitchConfig, opts Options, now time.Time) *Engine {
	e := &Engine{opts: opts}
	for i := range e.calibrators {
		e.calibrators[i] = NewCalibrator(opts.StableSpread)
	}
	for i, cfg := range configs {
		if !cfg.Valid() {
			cfg = DefaultSwitchConfig()
		}
		e.configs[i] = cfg
	}
	e.state = SelectTarget
	e.enteredAt = now
	return e
}

// AddSample feeds a raw conversion for channel ch. Safe to call from the
// sampling goroutine. Unknown channels are ignored.
func (e *Engine) AddSample(ch ChannelID, raw uint16) {
	if !ch.Valid() {
		return
	}
	e.calibrators[ch].AddSample(raw)
}

// Calibrator returns the calibrator for channel ch.
func (e *Engine) Calibrator(ch ChannelID) *Calibrator {
	return e.calibrators[ch]
}

// State returns the current workflow state.
func (e *Engine) State() WorkflowState {
	return e.state
}

// Target returns the switch being configured.
func (e *Engine) Target() SwitchID {
	return e.target
}

// Config returns the configuration of switch id.
func (e *Engine) Config(id SwitchID) SwitchConfig {
	return e.configs[id]
}

// Runtime returns the volatile state of switch id.
func (e *Engine) Runtime(id SwitchID) SwitchRuntime {
	return e.runtimes[id]
}

// Values returns the current value of every analog channel (0 when disabled).
func (e *Engine) Values() [NumChannels]uint16 {
	var out [NumChannels]uint16
	for i, c := range e.calibrators {
		out[i] = c.CurrentValue()
	}
	return out
}

// Controls returns the controller emissions due this tick. Analog output is
// only produced in Normal.
func (e *Engine) Controls(now time.Time) []ControlChange {
	if e.state != Normal {
		return nil
	}
	var out []ControlChange
	for i, c := range e.calibrators {
		if v, ok := c.EmitIfChanged(now, e.opts.SendCooldown); ok {
			out = append(out, ControlChange{Channel: ChannelID(i), ControlValue: v})
		}
	}
	return out
}

// ResendAllNotes re-synchronizes listeners with the note state of every
// switch without changing workflow state.
func (e *Engine) ResendAllNotes() []NoteEvent {
	var out []NoteEvent
	for i := 0; i < NumSwitches; i++ {
		out = append(out, ResyncNotes(SwitchID(i), e.configs[i], e.runtimes[i])...)
	}
	return out
}

// Snapshot is a point-in-time copy of the engine state.
type Snapshot struct {
	State   WorkflowState
	Target  SwitchID
	Configs [NumSwitches]SwitchConfig
	Slots   [NumSwitches]int
	Values  [NumChannels]uint16
	Enabled [NumChannels]bool
}

// Snapshot returns a copy of the engine state for status consumers.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		State:   e.state,
		Target:  e.target,
		Configs: e.configs,
		Values:  e.Values(),
	}
	for i, rt := range e.runtimes {
		s.Slots[i] = rt.Slot
	}
	for i, c := range e.calibrators {
		s.Enabled[i] = c.Enabled()
	}
	return s
}
