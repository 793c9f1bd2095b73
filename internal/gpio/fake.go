package gpio

import (
	"errors"

	"github.com/sweeney/footctl/internal/logic"
)

// FakeSwitches is a test double that returns scripted switch levels.
type FakeSwitches struct {
	// Samples contains scripted levels to return.
	// Each call to Read() consumes the next sample.
	Samples [][logic.NumSwitches]bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeSwitches creates a FakeSwitches with the given samples.
func NewFakeSwitches(samples ...[logic.NumSwitches]bool) *FakeSwitches {
	return &FakeSwitches{Samples: samples}
}

// Pressed builds a sample with the given switches held down.
func Pressed(ids ...logic.SwitchID) [logic.NumSwitches]bool {
	var s [logic.NumSwitches]bool
	for _, id := range ids {
		s[id] = true
	}
	return s
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeSwitches) Read() ([logic.NumSwitches]bool, error) {
	if f.ReadError != nil {
		return [logic.NumSwitches]bool{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return [logic.NumSwitches]bool{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeSwitches) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeSwitches) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeLEDs records every frame written to it.
type FakeLEDs struct {
	Frames [][logic.NumLEDs]bool

	// WriteError, if set, will be returned by Write()
	WriteError error

	Closed bool
}

// NewFakeLEDs creates an empty FakeLEDs.
func NewFakeLEDs() *FakeLEDs {
	return &FakeLEDs{}
}

// Write records the frame.
func (f *FakeLEDs) Write(leds [logic.NumLEDs]bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Frames = append(f.Frames, leds)
	return nil
}

// Last returns the most recent frame and whether one was written.
func (f *FakeLEDs) Last() ([logic.NumLEDs]bool, bool) {
	if len(f.Frames) == 0 {
		return [logic.NumLEDs]bool{}, false
	}
	return f.Frames[len(f.Frames)-1], true
}

// Close marks the writer as closed.
func (f *FakeLEDs) Close() error {
	f.Closed = true
	return nil
}
