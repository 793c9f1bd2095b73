package adc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/sweeney/footctl/internal/logic"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSamplerRotatesChannels(t *testing.T) {
	r := NewFakeReader(map[int][]uint16{
		4: {100, 101},
		5: {200},
		6: {300},
	})
	sink := &RecordingSink{}
	s, err := NewSampler(r, []int{4, 5, 6}, sink, discardLogger())
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}

	for i := 0; i < 4; i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}

	want := []Sample{{0, 100}, {1, 200}, {2, 300}, {0, 101}}
	if !reflect.DeepEqual(sink.Samples, want) {
		t.Errorf("samples: got %v, want %v", sink.Samples, want)
	}
	if !reflect.DeepEqual(r.Reads, []int{4, 5, 6, 4}) {
		t.Errorf("hardware reads: got %v", r.Reads)
	}
	if s.Next() != 1 {
		t.Errorf("armed channel: got %d, want 1", s.Next())
	}
}

func TestSamplerErrorStillAdvances(t *testing.T) {
	r := NewFakeReader(map[int][]uint16{0: {1}, 1: {2}, 2: {3}})
	r.ReadError = errors.New("conversion timeout")
	sink := &RecordingSink{}
	s, _ := NewSampler(r, []int{0, 1, 2}, sink, discardLogger())

	if err := s.Step(); err == nil {
		t.Fatal("expected error")
	}
	if len(sink.Samples) != 0 {
		t.Errorf("failed conversion delivered: %v", sink.Samples)
	}
	if s.Next() != 1 {
		t.Errorf("armed channel: got %d, want 1", s.Next())
	}
}

func TestNewSamplerRequiresThreeChannels(t *testing.T) {
	if _, err := NewSampler(NewFakeReader(nil), []int{0, 1}, &RecordingSink{}, discardLogger()); err == nil {
		t.Error("expected error for two channels")
	}
}

func TestSamplerFeedsEngine(t *testing.T) {
	r := NewFakeReader(map[int][]uint16{0: {0, 1000, 500}, 1: {0}, 2: {0}})
	e := logic.NewEngine([logic.NumSwitches]logic.SwitchConfig{}, logic.DefaultOptions(), time.Now())
	s, _ := NewSampler(r, []int{0, 1, 2}, e, discardLogger())

	for i := 0; i < 3*logic.NumChannels; i++ {
		s.Step()
	}
	lo, hi, ok := e.Calibrator(0).Range()
	if !ok || lo != 0 || hi != 1000 {
		t.Errorf("channel 0 range: got [%d, %d] ok=%v", lo, hi, ok)
	}
}

func TestSamplerRunStopsOnCancel(t *testing.T) {
	r := NewFakeReader(map[int][]uint16{0: {1}, 1: {2}, 2: {3}})
	sink := &RecordingSink{}
	s, _ := NewSampler(r, []int{0, 1, 2}, sink, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, time.Millisecond) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	sink.mu.Lock()
	n := len(sink.Samples)
	sink.mu.Unlock()
	if n == 0 {
		t.Error("expected at least one sample")
	}
}

func TestIIOReader(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "in_voltage2_raw"), []byte("3071\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "in_voltage3_raw"), []byte("-5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewIIOReader(dir)
	if err != nil {
		t.Fatalf("NewIIOReader: %v", err)
	}

	v, err := r.ReadRaw(2)
	if err != nil {
		t.Fatalf("ReadRaw(2): %v", err)
	}
	if v != 3071 {
		t.Errorf("ReadRaw(2): got %d, want 3071", v)
	}
	if _, err := r.ReadRaw(3); err == nil {
		t.Error("negative value should fail to parse")
	}
	if _, err := r.ReadRaw(9); err == nil {
		t.Error("missing channel should fail")
	}
}

func TestNewIIOReaderMissingDevice(t *testing.T) {
	if _, err := NewIIOReader(filepath.Join(t.TempDir(), "iio:device9")); err == nil {
		t.Error("expected error for missing device")
	}
}
