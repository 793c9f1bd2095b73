//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/footctl/internal/logic"
)

// RealSwitches reads foot switches from actual hardware.
type RealSwitches struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
	raw   []int
}

// NewRealSwitches requests the switch lines as inputs with pull-ups. A
// non-zero debounce enables the kernel line debouncer.
func NewRealSwitches(chipName string, offsets []int, debounce time.Duration) (*RealSwitches, error) {
	if len(offsets) != logic.NumSwitches {
		return nil, fmt.Errorf("switch lines: got %d offsets, need %d", len(offsets), logic.NumSwitches)
	}
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithPullUp, gpiocdev.WithConsumer("footctl")}
	if debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(debounce))
	}
	lines, err := chip.RequestLines(offsets, opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request switch lines %v: %w", offsets, err)
	}

	return &RealSwitches{
		chip:  chip,
		lines: lines,
		raw:   make([]int, len(offsets)),
	}, nil
}

// Read returns the logical switch levels.
// Inverts raw GPIO: raw 0 = pressed (switch pulls the line to ground).
func (r *RealSwitches) Read() ([logic.NumSwitches]bool, error) {
	var out [logic.NumSwitches]bool
	if err := r.lines.Values(r.raw); err != nil {
		return out, fmt.Errorf("read switch lines: %w", err)
	}
	for i, v := range r.raw {
		out[i] = v == 0
	}
	return out, nil
}

// Close releases the switch lines and the chip.
func (r *RealSwitches) Close() error {
	var errs []error
	if r.lines != nil {
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close switch lines: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealLEDs drives the LED array on actual hardware.
type RealLEDs struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
	vals  []int
}

// NewRealLEDs requests the LED lines as outputs, initially off.
func NewRealLEDs(chipName string, offsets []int) (*RealLEDs, error) {
	if len(offsets) != logic.NumLEDs {
		return nil, fmt.Errorf("led lines: got %d offsets, need %d", len(offsets), logic.NumLEDs)
	}
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	vals := make([]int, len(offsets))
	lines, err := chip.RequestLines(offsets, gpiocdev.AsOutput(vals...), gpiocdev.WithConsumer("footctl"))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request led lines %v: %w", offsets, err)
	}

	return &RealLEDs{
		chip:  chip,
		lines: lines,
		vals:  vals,
	}, nil
}

// Write sets every LED line.
func (l *RealLEDs) Write(leds [logic.NumLEDs]bool) error {
	for i, on := range leds {
		l.vals[i] = 0
		if on {
			l.vals[i] = 1
		}
	}
	if err := l.lines.SetValues(l.vals); err != nil {
		return fmt.Errorf("write led lines: %w", err)
	}
	return nil
}

// Close turns every LED off and reconfigures the lines as inputs with
// pull-down (matching Pi boot defaults) before releasing them.
func (l *RealLEDs) Close() error {
	var errs []error
	if l.lines != nil {
		for i := range l.vals {
			l.vals[i] = 0
		}
		if err := l.lines.SetValues(l.vals); err != nil {
			errs = append(errs, fmt.Errorf("clear led lines: %w", err))
		}
		if err := l.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure led lines: %w", err))
		}
		if err := l.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led lines: %w", err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
