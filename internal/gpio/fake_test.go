package gpio

import (
	"errors"
	"testing"
)

func TestFakeSwitchesRead(t *testing.T) {
	f := NewFakeSwitches(Pressed(0), Pressed(3, 10), Pressed())

	got, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got[0] || got[3] {
		t.Errorf("sample 0: got %v", got)
	}

	got, err = f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0] || !got[3] || !got[10] {
		t.Errorf("sample 1: got %v", got)
	}

	got, _ = f.Read()
	if got != Pressed() {
		t.Errorf("sample 2: expected all released, got %v", got)
	}

	// Fourth read should repeat last sample
	got, _ = f.Read()
	if got != Pressed() {
		t.Errorf("sample 3 (repeat): expected all released, got %v", got)
	}
}

func TestFakeSwitchesNoSamples(t *testing.T) {
	f := NewFakeSwitches()

	if _, err := f.Read(); err == nil {
		t.Error("expected error with no samples")
	}
}

func TestFakeSwitchesError(t *testing.T) {
	f := NewFakeSwitches(Pressed(1))
	f.ReadError = errors.New("simulated error")

	_, err := f.Read()
	if err == nil {
		t.Fatal("expected error to be returned")
	}
	if err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeSwitchesCloseAndReset(t *testing.T) {
	f := NewFakeSwitches(Pressed(2), Pressed())

	if f.Closed {
		t.Error("should not be closed initially")
	}
	f.Read()
	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}

	f.Reset()
	got, _ := f.Read()
	if !got[2] {
		t.Errorf("after reset: expected switch 2 pressed, got %v", got)
	}
}

func TestFakeLEDsRecordsFrames(t *testing.T) {
	f := NewFakeLEDs()

	if _, ok := f.Last(); ok {
		t.Error("no frame expected before the first write")
	}

	var frame [11]bool
	frame[9] = true
	if err := f.Write(frame); err != nil {
		t.Fatalf("Write: %v", err)
	}
	last, ok := f.Last()
	if !ok || last != frame {
		t.Errorf("Last: got %v, want %v", last, frame)
	}

	f.WriteError = errors.New("bus error")
	if err := f.Write(frame); err == nil {
		t.Error("expected write error")
	}
	if len(f.Frames) != 1 {
		t.Errorf("failed write should not be recorded, got %d frames", len(f.Frames))
	}
}
