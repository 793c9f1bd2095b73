package midi

import (
	"fmt"
	"log/slog"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// RealTransport sends to a driver output port.
type RealTransport struct {
	out  drivers.Out
	send func(msg gomidi.Message) error
}

// NewRealTransport opens out for sending.
func NewRealTransport(out drivers.Out) (*RealTransport, error) {
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open midi out %q: %w", out.String(), err)
	}
	return &RealTransport{out: out, send: send}, nil
}

// FindOut returns the first output port whose name contains name.
func FindOut(name string) (drivers.Out, error) {
	out, err := gomidi.FindOutPort(name)
	if err != nil {
		return nil, fmt.Errorf("find midi out %q: %w", name, err)
	}
	return out, nil
}

// NoteOn sends a note-on.
func (t *RealTransport) NoteOn(channel, note, velocity uint8) error {
	return t.send(gomidi.NoteOn(channel, note, velocity))
}

// NoteOff sends a note-off with an explicit release velocity.
func (t *RealTransport) NoteOff(channel, note, velocity uint8) error {
	return t.send(gomidi.NoteOffVelocity(channel, note, velocity))
}

// ControlChange sends a control change.
func (t *RealTransport) ControlChange(channel, controller, value uint8) error {
	return t.send(gomidi.ControlChange(channel, controller, value))
}

// Close closes the output port.
func (t *RealTransport) Close() error {
	if err := t.out.Close(); err != nil {
		return fmt.Errorf("close midi out: %w", err)
	}
	return nil
}

// IsResync reports whether msg is the reserved resync controller.
func IsResync(msg gomidi.Message, cc uint8) bool {
	var ch, c, v uint8
	return msg.GetControlChange(&ch, &c, &v) && c == cc
}

// ListenResync watches the input port whose name contains name and calls
// onResync for every reserved controller message. All other input is
// discarded. The returned func stops listening.
func ListenResync(name string, cc uint8, onResync func(), logger *slog.Logger) (func(), error) {
	in, err := gomidi.FindInPort(name)
	if err != nil {
		return nil, fmt.Errorf("find midi in %q: %w", name, err)
	}
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, _ int32) {
		if IsResync(msg, cc) {
			logger.Debug("midi: resync requested", "port", in.String())
			onResync()
		}
	}, gomidi.HandleError(func(listenErr error) {
		logger.Warn("midi: listener error", "port", in.String(), "err", listenErr)
	}))
	if err != nil {
		return nil, fmt.Errorf("listen midi in %q: %w", name, err)
	}
	logger.Info("midi: listening for resync", "port", in.String(), "cc", cc)
	return func() {
		stop()
		_ = in.Close()
	}, nil
}
