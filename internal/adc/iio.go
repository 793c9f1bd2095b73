package adc

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// IIOReader reads raw conversions from a Linux Industrial I/O device through
// sysfs (in_voltageN_raw).
type IIOReader struct {
	dir string
}

// NewIIOReader opens the IIO device directory, e.g.
// /sys/bus/iio/devices/iio:device0.
func NewIIOReader(dir string) (*IIOReader, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open iio device: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("open iio device: %s is not a directory", dir)
	}
	return &IIOReader{dir: dir}, nil
}

// ReadRaw triggers a one-shot conversion on channel and returns the value.
func (r *IIOReader) ReadRaw(channel int) (uint16, error) {
	path := filepath.Join(r.dir, fmt.Sprintf("in_voltage%d_raw", channel))
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return uint16(v), nil
}
