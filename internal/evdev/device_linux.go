package evdev

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/holoplot/go-evdev"

	"github.com/sweeney/footctl/internal/logic"
)

// Switches reads switch levels from an input device. Key events are consumed
// by a background goroutine; Read returns the latest levels.
type Switches struct {
	dev    *evdev.InputDevice
	levels *levels
	logger *slog.Logger
}

// Open opens the input device at path, grabs it so key presses do not reach
// other consumers, and starts reading events.
func Open(path string, codes []int, logger *slog.Logger) (*Switches, error) {
	keymap, err := NewKeymap(codes)
	if err != nil {
		return nil, err
	}
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input device %s: %w", path, err)
	}
	if err := dev.Grab(); err != nil {
		dev.Close()
		return nil, fmt.Errorf("grab input device %s: %w", path, err)
	}
	name, _ := dev.Name()
	logger.Info("evdev: device opened", "path", path, "name", name)

	s := &Switches{
		dev:    dev,
		levels: &levels{keymap: keymap},
		logger: logger,
	}
	go s.run()
	return s, nil
}

func (s *Switches) run() {
	for {
		ev, err := s.dev.ReadOne()
		if err != nil {
			if !errors.Is(err, os.ErrClosed) {
				s.logger.Warn("evdev: read failed", "err", err)
			}
			s.levels.fail(fmt.Errorf("read input event: %w", err))
			return
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		if s.levels.apply(uint16(ev.Code), ev.Value) {
			s.logger.Debug("evdev: key", "code", ev.Code, "value", ev.Value)
		}
	}
}

// Read returns the latest switch levels, true = pressed.
func (s *Switches) Read() ([logic.NumSwitches]bool, error) {
	return s.levels.snapshot()
}

// Close releases the grab and closes the device, which ends the reader.
func (s *Switches) Close() error {
	_ = s.dev.Ungrab()
	if err := s.dev.Close(); err != nil {
		return fmt.Errorf("close input device: %w", err)
	}
	return nil
}
