//go:build !linux

package storage

import "errors"

// MmapStore is not available on non-Linux platforms.
type MmapStore struct{}

// OpenMmap returns an error on non-Linux platforms.
func OpenMmap(path string, size int) (*MmapStore, error) {
	return nil, errors.New("storage: mmap image not supported on this platform (requires Linux)")
}

// Byte is not implemented on non-Linux platforms.
func (s *MmapStore) Byte(index int) (byte, error) {
	return 0, errors.New("storage: not supported")
}

// SetByte is not implemented on non-Linux platforms.
func (s *MmapStore) SetByte(index int, value byte) error {
	return errors.New("storage: not supported")
}

// Size is zero on non-Linux platforms.
func (s *MmapStore) Size() int {
	return 0
}

// Close is not implemented on non-Linux platforms.
func (s *MmapStore) Close() error {
	return nil
}
