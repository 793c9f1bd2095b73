// Package gpio provides switch input and LED output with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/footctl/internal/logic"

// SwitchReader reads the level of every foot switch.
type SwitchReader interface {
	// Read returns the logical levels, true = pressed.
	// The raw lines are active-low: raw 0 = pressed.
	Read() ([logic.NumSwitches]bool, error)

	// Close releases GPIO resources.
	Close() error
}

// LEDWriter drives the LED array.
type LEDWriter interface {
	// Write sets every LED, true = lit.
	Write(leds [logic.NumLEDs]bool) error

	// Close turns the LEDs off and releases GPIO resources.
	Close() error
}

// Default line offsets on gpiochip0 (BCM numbering).
var (
	DefaultSwitchLines = []int{4, 17, 27, 22, 5, 6, 13, 19, 26, 21, 20}
	DefaultLEDLines    = []int{14, 15, 18, 23, 24, 25, 8, 7, 12, 16, 11}
)

// DefaultChip is the GPIO character device used when none is configured.
const DefaultChip = "gpiochip0"
