//go:build linux

package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// MmapStore is a file-backed image mapped into memory. Every write is synced
// to the file before SetByte returns.
type MmapStore struct {
	f    *os.File
	data []byte
}

// OpenMmap opens (creating if needed) the image at path and maps size bytes.
// A new or short file is extended with erased cells. The file is locked
// exclusively so two daemons cannot share one image.
func OpenMmap(path string, size int) (*MmapStore, error) {
	if size <= 0 {
		return nil, fmt.Errorf("open storage image: invalid size %d", size)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open storage image: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("lock storage image %s: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat storage image: %w", err)
	}
	if cur := fi.Size(); cur < int64(size) {
		fill := bytes.Repeat([]byte{Erased}, size-int(cur))
		if _, err := f.WriteAt(fill, cur); err != nil {
			f.Close()
			return nil, fmt.Errorf("extend storage image: %w", err)
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return nil, fmt.Errorf("sync storage image: %w", err)
		}
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("map storage image: %w", err)
	}
	return &MmapStore{f: f, data: data}, nil
}

// Byte returns the value at index.
func (s *MmapStore) Byte(index int) (byte, error) {
	if index < 0 || index >= len(s.data) {
		return 0, fmt.Errorf("read byte %d: %w", index, ErrOutOfRange)
	}
	return s.data[index], nil
}

// SetByte writes value at index and syncs the mapping.
func (s *MmapStore) SetByte(index int, value byte) error {
	if index < 0 || index >= len(s.data) {
		return fmt.Errorf("write byte %d: %w", index, ErrOutOfRange)
	}
	if s.data[index] == value {
		return nil
	}
	s.data[index] = value
	if err := unix.Msync(s.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("sync storage image: %w", err)
	}
	return nil
}

// Size returns the mapped length.
func (s *MmapStore) Size() int {
	return len(s.data)
}

// Close unmaps the image and releases the file lock.
func (s *MmapStore) Close() error {
	var errs []error
	if s.data != nil {
		if err := unix.Msync(s.data, unix.MS_SYNC); err != nil {
			errs = append(errs, fmt.Errorf("sync: %w", err))
		}
		if err := unix.Munmap(s.data); err != nil {
			errs = append(errs, fmt.Errorf("unmap: %w", err))
		}
		s.data = nil
	}
	if s.f != nil {
		if err := unix.Flock(int(s.f.Fd()), unix.LOCK_UN); err != nil {
			errs = append(errs, fmt.Errorf("unlock: %w", err))
		}
		if err := s.f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close: %w", err))
		}
		s.f = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
