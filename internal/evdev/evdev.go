// Package evdev reads foot switches from a Linux input device (a USB foot
// switch that reports key events) as an alternative to GPIO lines.
package evdev

import (
	"fmt"
	"sync"

	"github.com/sweeney/footctl/internal/logic"
)

// Key event values reported for EV_KEY.
const (
	keyRelease = 0
	keyPress   = 1
	keyRepeat  = 2
)

// DefaultCodes maps switches 0..10 to KEY_1..KEY_0, KEY_MINUS (codes 2..12).
var DefaultCodes = []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

// Keymap maps key codes to switches.
type Keymap map[uint16]logic.SwitchID

// NewKeymap builds a keymap from one key code per switch.
func NewKeymap(codes []int) (Keymap, error) {
	if len(codes) != logic.NumSwitches {
		return nil, fmt.Errorf("keymap: got %d codes, need %d", len(codes), logic.NumSwitches)
	}
	m := make(Keymap, len(codes))
	for i, c := range codes {
		if c < 0 || c > 0xFFFF {
			return nil, fmt.Errorf("keymap: code %d out of range", c)
		}
		if prev, dup := m[uint16(c)]; dup {
			return nil, fmt.Errorf("keymap: code %d used by switches %d and %d", c, prev, i)
		}
		m[uint16(c)] = logic.SwitchID(i)
	}
	return m, nil
}

// levels holds the latest switch levels written by the event goroutine.
type levels struct {
	mu     sync.Mutex
	keymap Keymap
	state  [logic.NumSwitches]bool
	err    error
}

// apply updates the levels for one key event and reports whether it was
// mapped. Autorepeat is ignored.
func (l *levels) apply(code uint16, value int32) bool {
	id, ok := l.keymap[code]
	if !ok {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	switch value {
	case keyPress:
		l.state[id] = true
	case keyRelease:
		l.state[id] = false
	case keyRepeat:
	default:
		return false
	}
	return true
}

func (l *levels) fail(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
}

// snapshot returns the current levels, or the error that stopped the reader.
func (l *levels) snapshot() ([logic.NumSwitches]bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state, l.err
}
