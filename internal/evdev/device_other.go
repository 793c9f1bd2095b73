//go:build !linux

package evdev

import (
	"errors"
	"log/slog"

	"github.com/sweeney/footctl/internal/logic"
)

// Switches is not available on non-Linux platforms.
type Switches struct{}

// Open returns an error on non-Linux platforms.
func Open(path string, codes []int, logger *slog.Logger) (*Switches, error) {
	return nil, errors.New("evdev: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (s *Switches) Read() ([logic.NumSwitches]bool, error) {
	return [logic.NumSwitches]bool{}, errors.New("evdev: not supported")
}

// Close is not implemented on non-Linux platforms.
func (s *Switches) Close() error {
	return nil
}
