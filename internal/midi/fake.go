package midi

import "sync"

// Kind identifies a recorded message.
type Kind string

const (
	KindNoteOn  Kind = "NOTE_ON"
	KindNoteOff Kind = "NOTE_OFF"
	KindCC      Kind = "CC"
)

// Message is one recorded send.
type Message struct {
	Kind    Kind
	Channel uint8
	Data1   uint8 // note or controller
	Data2   uint8 // velocity or value
}

// FakeTransport records sent messages for test assertions.
type FakeTransport struct {
	mu       sync.Mutex
	Messages []Message

	// SendError, if set, is returned by every send.
	SendError error

	Closed bool
}

// NewFakeTransport creates an empty FakeTransport.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

func (f *FakeTransport) record(m Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendError != nil {
		return f.SendError
	}
	f.Messages = append(f.Messages, m)
	return nil
}

// NoteOn records a note-on.
func (f *FakeTransport) NoteOn(channel, note, velocity uint8) error {
	return f.record(Message{KindNoteOn, channel, note, velocity})
}

// NoteOff records a note-off.
func (f *FakeTransport) NoteOff(channel, note, velocity uint8) error {
	return f.record(Message{KindNoteOff, channel, note, velocity})
}

// ControlChange records a control change.
func (f *FakeTransport) ControlChange(channel, controller, value uint8) error {
	return f.record(Message{KindCC, channel, controller, value})
}

// Sent returns a copy of the recorded messages.
func (f *FakeTransport) Sent() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.Messages...)
}

// Reset clears recorded messages.
func (f *FakeTransport) Reset() {
	f.mu.Lock()
	f.Messages = nil
	f.mu.Unlock()
}

// Close marks the transport as closed.
func (f *FakeTransport) Close() error {
	f.Closed = true
	return nil
}
