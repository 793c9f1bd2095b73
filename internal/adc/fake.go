package adc

import (
	"fmt"
	"sync"

	"github.com/sweeney/footctl/internal/logic"
)

// FakeReader returns scripted conversions per hardware channel.
// Once a channel's script is exhausted its last value repeats.
type FakeReader struct {
	mu     sync.Mutex
	Values map[int][]uint16
	pos    map[int]int

	// Reads records the hardware channel of every ReadRaw call.
	Reads []int

	// ReadError, if set, will be returned by ReadRaw.
	ReadError error
}

// NewFakeReader creates a FakeReader with the given scripts.
func NewFakeReader(values map[int][]uint16) *FakeReader {
	return &FakeReader{Values: values, pos: make(map[int]int)}
}

// ReadRaw returns the next scripted value for channel.
func (f *FakeReader) ReadRaw(channel int) (uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Reads = append(f.Reads, channel)
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	script := f.Values[channel]
	if len(script) == 0 {
		return 0, fmt.Errorf("no values for channel %d", channel)
	}
	i := f.pos[channel]
	if i < len(script)-1 {
		f.pos[channel] = i + 1
	}
	return script[i], nil
}

// Sample is one delivered conversion.
type Sample struct {
	Channel logic.ChannelID
	Raw     uint16
}

// RecordingSink records delivered samples.
type RecordingSink struct {
	mu      sync.Mutex
	Samples []Sample
}

// AddSample records the sample.
func (r *RecordingSink) AddSample(ch logic.ChannelID, raw uint16) {
	r.mu.Lock()
	r.Samples = append(r.Samples, Sample{Channel: ch, Raw: raw})
	r.mu.Unlock()
}
