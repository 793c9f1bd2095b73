// Package midi sends the controller's notes and continuous controllers to a
// MIDI port and watches an input port for the reserved resync controller.
package midi

import (
	"errors"
	"fmt"

	"github.com/sweeney/footctl/internal/logic"
)

// Transport sends channel voice messages. channel is the wire channel 0..15.
type Transport interface {
	NoteOn(channel, note, velocity uint8) error
	NoteOff(channel, note, velocity uint8) error
	ControlChange(channel, controller, value uint8) error
	Close() error
}

// DefaultControllers are the controller numbers of analog channels 0..2. The
// low 7 bits of each value go to controller+32.
var DefaultControllers = []int{1, 7, 4}

// DefaultResyncCC is the incoming controller that triggers a note resync.
const DefaultResyncCC = 119

// lsbOffset is the distance between an MSB controller and its LSB pair.
const lsbOffset = 32

// Output maps engine events onto a Transport.
type Output struct {
	t           Transport
	channel     uint8
	controllers [logic.NumChannels]uint8
}

// NewOutput sends on MIDI channel (1..16) using one MSB controller number
// (0..31) per analog channel.
func NewOutput(t Transport, channel int, controllers []int) (*Output, error) {
	if channel < 1 || channel > 16 {
		return nil, fmt.Errorf("midi channel %d out of range 1..16", channel)
	}
	if len(controllers) != logic.NumChannels {
		return nil, fmt.Errorf("got %d controllers, need %d", len(controllers), logic.NumChannels)
	}
	o := &Output{t: t, channel: uint8(channel - 1)}
	for i, c := range controllers {
		if c < 0 || c >= lsbOffset {
			return nil, fmt.Errorf("controller %d out of range 0..31", c)
		}
		o.controllers[i] = uint8(c)
	}
	return o, nil
}

// SendNotes sends every note in order. A failed send does not stop the rest.
func (o *Output) SendNotes(notes []logic.NoteEvent) error {
	var errs []error
	for _, n := range notes {
		var err error
		if n.On {
			err = o.t.NoteOn(o.channel, n.Note, n.Velocity)
		} else {
			err = o.t.NoteOff(o.channel, n.Note, n.Velocity)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("send %s: %w", n, err))
		}
	}
	return errors.Join(errs...)
}

// SendControls sends each value as an MSB/LSB controller pair.
func (o *Output) SendControls(ccs []logic.ControlChange) error {
	var errs []error
	for _, cc := range ccs {
		if !cc.Channel.Valid() {
			continue
		}
		ctl := o.controllers[cc.Channel]
		if err := o.t.ControlChange(o.channel, ctl, cc.MSB); err != nil {
			errs = append(errs, fmt.Errorf("send cc %d: %w", ctl, err))
			continue
		}
		if err := o.t.ControlChange(o.channel, ctl+lsbOffset, cc.LSB); err != nil {
			errs = append(errs, fmt.Errorf("send cc %d: %w", ctl+lsbOffset, err))
		}
	}
	return errors.Join(errs...)
}
