// Package logic contains the pure control core of the foot controller:
// analog calibration, per-switch note behavior, the programming workflow and
// LED rendering.
// This package has NO external dependencies (no GPIO, MIDI, storage or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "fmt"

// Fixed hardware cardinalities.
const (
	NumSwitches = 11
	NumChannels = 3
	NumLEDs     = 11
)

// ExitSwitch is the designated switch that leaves SelectTarget, toggles the
// behavior mode in Program and re-enters SelectTarget from Normal.
const ExitSwitch SwitchID = NumSwitches - 1

// MaxCycleCount is the largest slot count the workflow can assign: one per
// non-exit switch.
const MaxCycleCount = NumSwitches - 1

// MaxValue is the largest 14-bit controller value.
const MaxValue = 16383

// Note velocities sent for note-on and note-off.
const (
	VelocityOn  = 127
	VelocityOff = 0
)

// SwitchID indexes a switch in [0, NumSwitches).
type SwitchID int

// Valid reports whether id addresses a real switch.
func (id SwitchID) Valid() bool {
	return id >= 0 && id < NumSwitches
}

// ChannelID indexes an analog channel in [0, NumChannels).
type ChannelID int

// Valid reports whether id addresses a real analog channel.
func (id ChannelID) Valid() bool {
	return id >= 0 && id < NumChannels
}

// BehaviorMode selects how a switch turns edges into notes.
type BehaviorMode uint8

const (
	// Instant sounds a note only while the switch is held.
	Instant BehaviorMode = iota
	// Toggle latches a note on press until the next press.
	Toggle
)

func (m BehaviorMode) String() string {
	switch m {
	case Instant:
		return "INSTANT"
	case Toggle:
		return "TOGGLE"
	}
	return fmt.Sprintf("BehaviorMode(%d)", uint8(m))
}

// SwitchConfig is the persisted per-switch configuration.
type SwitchConfig struct {
	Mode       BehaviorMode
	CycleCount int
}

// DefaultSwitchConfig is used when storage holds no valid configuration.
func DefaultSwitchConfig() SwitchConfig {
	return SwitchConfig{Mode: Instant, CycleCount: 1}
}

// Valid reports whether the config can be used as-is.
func (c SwitchConfig) Valid() bool {
	if c.Mode != Instant && c.Mode != Toggle {
		return false
	}
	return c.CycleCount >= 1 && c.CycleCount <= MaxCycleCount
}

// SwitchRuntime is the volatile per-switch state.
type SwitchRuntime struct {
	// Slot is the current position in [0, CycleCount) (or [0, 2) for a
	// single-slot toggle).
	Slot int
}

// EdgeKind is the direction of a debounced switch transition.
type EdgeKind uint8

const (
	Pressed EdgeKind = iota
	Released
)

func (k EdgeKind) String() string {
	if k == Pressed {
		return "PRESSED"
	}
	return "RELEASED"
}

// Edge is one debounced transition of one switch.
type Edge struct {
	Switch SwitchID
	Kind   EdgeKind
}

// NoteEvent is a note-on or note-off to be sent on the MIDI channel.
type NoteEvent struct {
	On       bool
	Note     uint8
	Velocity uint8
}

func (n NoteEvent) String() string {
	if n.On {
		return fmt.Sprintf("NoteOn(%d, %d)", n.Note, n.Velocity)
	}
	return fmt.Sprintf("NoteOff(%d, %d)", n.Note, n.Velocity)
}

// ControlValue is a 14-bit controller value split into its two 7-bit data bytes.
type ControlValue struct {
	Value uint16
	MSB   uint8 // sent on the base controller number
	LSB   uint8 // sent on controller number + 32
}

// SplitValue splits a 14-bit value into MIDI data bytes.
func SplitValue(v uint16) ControlValue {
	return ControlValue{
		Value: v,
		MSB:   uint8((v >> 7) & 0x7F),
		LSB:   uint8(v & 0x7F),
	}
}

// ControlChange is an emission for one analog channel.
type ControlChange struct {
	Channel ChannelID
	ControlValue
}

// WorkflowState is the state of the programming workflow.
type WorkflowState uint8

const (
	SelectTarget WorkflowState = iota
	Program
	DisplayConfirmation
	Normal
)

func (s WorkflowState) String() string {
	switch s {
	case SelectTarget:
		return "SELECT_TARGET"
	case Program:
		return "PROGRAM"
	case DisplayConfirmation:
		return "DISPLAY_CONFIRMATION"
	case Normal:
		return "NORMAL"
	}
	return fmt.Sprintf("WorkflowState(%d)", uint8(s))
}

// Transition records a workflow state change.
type Transition struct {
	From WorkflowState
	To   WorkflowState
}

// PersistRequest asks the caller to write a switch config to storage.
type PersistRequest struct {
	Switch SwitchID
	Config SwitchConfig
}

// Effects are the side effects produced by handling one tick's edges.
type Effects struct {
	Notes       []NoteEvent
	Persist     []PersistRequest
	Transitions []Transition
}
