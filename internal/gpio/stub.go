//go:build !linux

package gpio

import (
	"errors"
	"time"

	"github.com/sweeney/footctl/internal/logic"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealSwitches is not available on non-Linux platforms.
type RealSwitches struct{}

// NewRealSwitches returns an error on non-Linux platforms.
func NewRealSwitches(chipName string, offsets []int, debounce time.Duration) (*RealSwitches, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealSwitches) Read() ([logic.NumSwitches]bool, error) {
	return [logic.NumSwitches]bool{}, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealSwitches) Close() error {
	return nil
}

// RealLEDs is not available on non-Linux platforms.
type RealLEDs struct{}

// NewRealLEDs returns an error on non-Linux platforms.
func NewRealLEDs(chipName string, offsets []int) (*RealLEDs, error) {
	return nil, errUnsupported
}

// Write is not implemented on non-Linux platforms.
func (l *RealLEDs) Write(leds [logic.NumLEDs]bool) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (l *RealLEDs) Close() error {
	return nil
}
