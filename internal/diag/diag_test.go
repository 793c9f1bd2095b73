package diag

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestFormat(t *testing.T) {
	got := string(Format([3]uint16{0, 8192, 16383}))
	want := "0\t8192\t16383\t\r\n"
	if got != want {
		t.Errorf("Format: got %q, want %q", got, want)
	}
}

func TestWriterInterval(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	w := NewWriter(&buf, DefaultInterval, start)
	vals := [3]uint16{1, 2, 3}

	steps := []struct {
		at   time.Duration
		want bool
	}{
		{0, false},
		{199 * time.Millisecond, false},
		{200 * time.Millisecond, true},
		{300 * time.Millisecond, false},
		{400 * time.Millisecond, true},
		{1000 * time.Millisecond, true},
	}
	for _, s := range steps {
		wrote, err := w.Tick(start.Add(s.at), vals)
		if err != nil {
			t.Fatalf("at %v: %v", s.at, err)
		}
		if wrote != s.want {
			t.Errorf("at %v: wrote = %v, want %v", s.at, wrote, s.want)
		}
	}

	want := "1\t2\t3\t\r\n1\t2\t3\t\r\n1\t2\t3\t\r\n"
	if buf.String() != want {
		t.Errorf("output: got %q, want %q", buf.String(), want)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("port closed") }

func TestWriterError(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	w := NewWriter(failingWriter{}, DefaultInterval, start)

	wrote, err := w.Tick(start.Add(time.Second), [3]uint16{})
	if !wrote || err == nil {
		t.Errorf("expected attempted write with error, got wrote=%v err=%v", wrote, err)
	}
	// The failed line still consumes the interval.
	if wrote, _ := w.Tick(start.Add(time.Second+time.Millisecond), [3]uint16{}); wrote {
		t.Error("write retried before interval")
	}
}

func TestOpenSerialMissingPort(t *testing.T) {
	if _, err := OpenSerial("/dev/does-not-exist-footctl", 9600); err == nil {
		t.Error("expected error for missing port")
	}
}
