//go:build cgo

package main

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/sweeney/footctl/internal/midi"
)

// virtualPortName is advertised when no output port is configured.
const virtualPortName = "footctl"

// openMIDIOut opens the output port whose name contains name, or creates a
// virtual port when name is empty. The returned func releases the driver.
func openMIDIOut(name string) (drivers.Out, func(), error) {
	if name != "" {
		out, err := midi.FindOut(name)
		if err != nil {
			return nil, nil, err
		}
		return out, func() {}, nil
	}

	drv, err := rtmididrv.New()
	if err != nil {
		return nil, nil, fmt.Errorf("init rtmidi: %w", err)
	}
	out, err := drv.OpenVirtualOut(virtualPortName)
	if err != nil {
		drv.Close()
		return nil, nil, fmt.Errorf("open virtual midi out: %w", err)
	}
	return out, func() { drv.Close() }, nil
}
