//go:build !cgo

package main

import (
	"errors"

	"gitlab.com/gomidi/midi/v2/drivers"
)

func openMIDIOut(name string) (drivers.Out, func(), error) {
	return nil, nil, errors.New("midi output requires a cgo build (rtmidi)")
}
