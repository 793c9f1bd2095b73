package storage

import "fmt"

// Write is one recorded SetByte call.
type Write struct {
	Index int
	Value byte
}

// FakeStore is an in-memory Store for tests. It starts fully erased.
type FakeStore struct {
	Data []byte

	// Writes records every SetByte call in order.
	Writes []Write

	// ReadError, if set, is returned by Byte.
	ReadError error
	// WriteError, if set, is returned by SetByte.
	WriteError error

	Closed bool
}

// NewFakeStore creates an erased store of size bytes.
func NewFakeStore(size int) *FakeStore {
	data := make([]byte, size)
	for i := range data {
		data[i] = Erased
	}
	return &FakeStore{Data: data}
}

// Byte returns the value at index.
func (f *FakeStore) Byte(index int) (byte, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if index < 0 || index >= len(f.Data) {
		return 0, fmt.Errorf("read byte %d: %w", index, ErrOutOfRange)
	}
	return f.Data[index], nil
}

// SetByte records and stores value at index.
func (f *FakeStore) SetByte(index int, value byte) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	if index < 0 || index >= len(f.Data) {
		return fmt.Errorf("write byte %d: %w", index, ErrOutOfRange)
	}
	f.Writes = append(f.Writes, Write{Index: index, Value: value})
	f.Data[index] = value
	return nil
}

// Size returns len(Data).
func (f *FakeStore) Size() int {
	return len(f.Data)
}

// Close marks the store as closed.
func (f *FakeStore) Close() error {
	f.Closed = true
	return nil
}
