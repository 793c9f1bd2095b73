// Package diag writes the periodic diagnostic line with the current analog
// values to a serial port or stdout.
package diag

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"go.bug.st/serial"

	"github.com/sweeney/footctl/internal/logic"
)

// DefaultInterval is the period between two diagnostic lines.
const DefaultInterval = 200 * time.Millisecond

// Format renders one diagnostic line: every value followed by a tab, then CRLF.
func Format(values [logic.NumChannels]uint16) []byte {
	line := make([]byte, 0, 32)
	for _, v := range values {
		line = strconv.AppendUint(line, uint64(v), 10)
		line = append(line, '\t')
	}
	return append(line, '\r', '\n')
}

// Writer emits diagnostic lines at most once per interval.
type Writer struct {
	w        io.Writer
	interval time.Duration
	last     time.Time
}

// NewWriter creates a Writer whose first line is due one interval after start.
func NewWriter(w io.Writer, interval time.Duration, start time.Time) *Writer {
	return &Writer{w: w, interval: interval, last: start}
}

// Tick writes a line if the interval has elapsed since the previous one and
// reports whether it did.
func (d *Writer) Tick(now time.Time, values [logic.NumChannels]uint16) (bool, error) {
	if now.Sub(d.last) < d.interval {
		return false, nil
	}
	d.last = now
	if _, err := d.w.Write(Format(values)); err != nil {
		return true, fmt.Errorf("write diagnostics: %w", err)
	}
	return true, nil
}

// OpenSerial opens the named serial device at the given baud rate.
func OpenSerial(name string, baud int) (io.WriteCloser, error) {
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(name, mode)
	if err != nil {
		if ports, lerr := serial.GetPortsList(); lerr == nil {
			return nil, fmt.Errorf("open serial %s (available: %v): %w", name, ports, err)
		}
		return nil, fmt.Errorf("open serial %s: %w", name, err)
	}
	return p, nil
}
