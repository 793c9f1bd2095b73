package evdev

import (
	"errors"
	"testing"

	"github.com/sweeney/footctl/internal/logic"
)

func TestNewKeymap(t *testing.T) {
	m, err := NewKeymap(DefaultCodes)
	if err != nil {
		t.Fatalf("NewKeymap: %v", err)
	}
	if len(m) != logic.NumSwitches {
		t.Fatalf("keymap size: got %d, want %d", len(m), logic.NumSwitches)
	}
	if m[2] != 0 || m[12] != logic.ExitSwitch {
		t.Errorf("unexpected mapping: %v", m)
	}
}

func TestNewKeymapRejectsBadCodes(t *testing.T) {
	tests := []struct {
		name  string
		codes []int
	}{
		{"too few", []int{1, 2, 3}},
		{"duplicate", []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 2}},
		{"negative", []int{-1, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewKeymap(tt.codes); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLevelsApply(t *testing.T) {
	m, _ := NewKeymap(DefaultCodes)
	l := &levels{keymap: m}

	steps := []struct {
		code   uint16
		value  int32
		mapped bool
		want4  bool
	}{
		{6, keyPress, true, true},
		{6, keyRepeat, true, true},
		{30, keyPress, false, true}, // unmapped key
		{6, keyRelease, true, false},
		{6, 7, false, false},
	}
	for i, s := range steps {
		if got := l.apply(s.code, s.value); got != s.mapped {
			t.Errorf("step %d: mapped = %v, want %v", i, got, s.mapped)
		}
		state, err := l.snapshot()
		if err != nil {
			t.Fatalf("step %d: unexpected error %v", i, err)
		}
		if state[4] != s.want4 {
			t.Errorf("step %d: switch 4 = %v, want %v", i, state[4], s.want4)
		}
	}
}

func TestLevelsFail(t *testing.T) {
	m, _ := NewKeymap(DefaultCodes)
	l := &levels{keymap: m}
	l.apply(2, keyPress)

	l.fail(errors.New("device unplugged"))

	state, err := l.snapshot()
	if err == nil {
		t.Error("expected reader error")
	}
	if !state[0] {
		t.Error("levels should be kept after a failure")
	}
}
