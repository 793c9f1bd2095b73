// Package storage persists switch configurations in a small byte-addressed
// image that behaves like an EEPROM: erased cells read as 0xFF.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/sweeney/footctl/internal/logic"
)

// Erased is the value of a cell that has never been written.
const Erased = 0xFF

// MinSize is the smallest image that holds every switch configuration.
const MinSize = 2 * logic.NumSwitches

// ErrOutOfRange is returned for an index outside the image.
var ErrOutOfRange = errors.New("storage: index out of range")

// Store is persisted byte storage.
type Store interface {
	// Byte returns the value at index.
	Byte(index int) (byte, error)
	// SetByte writes value at index and makes it durable.
	SetByte(index int, value byte) error
	// Size returns the number of addressable bytes.
	Size() int
	// Close releases the underlying resources.
	Close() error
}

// Byte layout: 2*i holds the mode of switch i, 2*i+1 its cycle count.
func modeIndex(id logic.SwitchID) int  { return 2 * int(id) }
func countIndex(id logic.SwitchID) int { return 2*int(id) + 1 }

// DecodeConfig turns persisted bytes into a configuration. Each field that is
// erased or out of range falls back to its default independently.
func DecodeConfig(mode, count byte) logic.SwitchConfig {
	cfg := logic.DefaultSwitchConfig()
	if m := logic.BehaviorMode(mode); m == logic.Instant || m == logic.Toggle {
		cfg.Mode = m
	}
	if count >= 1 && int(count) <= logic.MaxCycleCount {
		cfg.CycleCount = int(count)
	}
	return cfg
}

// EncodeConfig returns the persisted bytes for cfg.
func EncodeConfig(cfg logic.SwitchConfig) (mode, count byte) {
	return byte(cfg.Mode), byte(cfg.CycleCount)
}

// ConfigStore reads and writes switch configurations. Writes are limited to
// one per interval; a write arriving sooner waits for the limiter.
type ConfigStore struct {
	store   Store
	limiter *rate.Limiter

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewConfigStore wraps s. interval is the minimum time between two writes.
func NewConfigStore(s Store, interval time.Duration) (*ConfigStore, error) {
	if s.Size() < MinSize {
		return nil, fmt.Errorf("storage image has %d bytes, need %d", s.Size(), MinSize)
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &ConfigStore{
		store:   s,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
		sleep:   sleepContext,
	}, nil
}

// Load returns the persisted configuration of every switch. Cells that cannot
// be read decode as defaults; the first read error is returned alongside the
// usable result.
func (c *ConfigStore) Load() ([logic.NumSwitches]logic.SwitchConfig, error) {
	var out [logic.NumSwitches]logic.SwitchConfig
	var firstErr error
	for i := range out {
		id := logic.SwitchID(i)
		mode, err := c.store.Byte(modeIndex(id))
		if err != nil {
			mode = Erased
			if firstErr == nil {
				firstErr = fmt.Errorf("read switch %d mode: %w", i, err)
			}
		}
		count, err := c.store.Byte(countIndex(id))
		if err != nil {
			count = Erased
			if firstErr == nil {
				firstErr = fmt.Errorf("read switch %d count: %w", i, err)
			}
		}
		out[i] = DecodeConfig(mode, count)
	}
	return out, firstErr
}

// Save persists cfg for switch id. It blocks until the write limiter allows
// the write or ctx is done.
func (c *ConfigStore) Save(ctx context.Context, id logic.SwitchID, cfg logic.SwitchConfig) error {
	if !id.Valid() {
		return fmt.Errorf("save switch %d: %w", id, ErrOutOfRange)
	}
	now := c.now()
	r := c.limiter.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("save switch %d: write limiter rejected reservation", id)
	}
	if d := r.DelayFrom(now); d > 0 {
		if err := c.sleep(ctx, d); err != nil {
			r.CancelAt(now)
			return fmt.Errorf("save switch %d: %w", id, err)
		}
	}

	mode, count := EncodeConfig(cfg)
	if err := c.store.SetByte(modeIndex(id), mode); err != nil {
		return fmt.Errorf("write switch %d mode: %w", id, err)
	}
	if err := c.store.SetByte(countIndex(id), count); err != nil {
		return fmt.Errorf("write switch %d count: %w", id, err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
