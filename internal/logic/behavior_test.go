package logic

import (
	"reflect"
	"testing"
)

func on(note uint8) NoteEvent  { return NoteEvent{On: true, Note: note, Velocity: VelocityOn} }
func off(note uint8) NoteEvent { return NoteEvent{On: false, Note: note, Velocity: VelocityOff} }

func TestNoteFor(t *testing.T) {
	tests := []struct {
		id   SwitchID
		slot int
		want uint8
		ok   bool
	}{
		{0, 0, 0, true},
		{1, 0, 12, true},
		{3, 2, 38, true},
		{10, 7, 127, true},
		{10, 8, 0, false},
	}
	for _, tt := range tests {
		got, ok := NoteFor(tt.id, tt.slot)
		if ok != tt.ok || got != tt.want {
			t.Errorf("NoteFor(%d, %d): got (%d, %v), want (%d, %v)", tt.id, tt.slot, got, ok, tt.want, tt.ok)
		}
	}
}

func TestInstantCyclesThroughSlots(t *testing.T) {
	cfg := SwitchConfig{Mode: Instant, CycleCount: 3}
	var rt SwitchRuntime
	id := SwitchID(2)

	steps := []struct {
		kind     EdgeKind
		want     []NoteEvent
		wantSlot int
	}{
		{Pressed, []NoteEvent{on(24)}, 0},
		{Released, []NoteEvent{off(24)}, 1},
		{Pressed, []NoteEvent{on(25)}, 1},
		{Released, []NoteEvent{off(25)}, 2},
		{Pressed, []NoteEvent{on(26)}, 2},
		{Released, []NoteEvent{off(26)}, 0},
		{Pressed, []NoteEvent{on(24)}, 0},
	}

	for i, s := range steps {
		got := ApplyEdge(id, cfg, &rt, s.kind)
		if !reflect.DeepEqual(got, s.want) {
			t.Errorf("step %d (%s): got %v, want %v", i, s.kind, got, s.want)
		}
		if rt.Slot != s.wantSlot {
			t.Errorf("step %d (%s): slot %d, want %d", i, s.kind, rt.Slot, s.wantSlot)
		}
	}
}

func TestInstantSingleSlotNeverRotates(t *testing.T) {
	cfg := SwitchConfig{Mode: Instant, CycleCount: 1}
	var rt SwitchRuntime

	for i := 0; i < 3; i++ {
		ApplyEdge(5, cfg, &rt, Pressed)
		got := ApplyEdge(5, cfg, &rt, Released)
		if !reflect.DeepEqual(got, []NoteEvent{off(60)}) {
			t.Errorf("release %d: got %v", i, got)
		}
		if rt.Slot != 0 {
			t.Errorf("release %d: slot %d, want 0", i, rt.Slot)
		}
	}
}

func TestToggleSingleSlotAlternates(t *testing.T) {
	cfg := SwitchConfig{Mode: Toggle, CycleCount: 1}
	var rt SwitchRuntime

	got := ApplyEdge(0, cfg, &rt, Pressed)
	if want := []NoteEvent{off(0), on(1)}; !reflect.DeepEqual(got, want) {
		t.Errorf("first press: got %v, want %v", got, want)
	}
	if rt.Slot != 1 {
		t.Errorf("first press: slot %d, want 1", rt.Slot)
	}

	got = ApplyEdge(0, cfg, &rt, Pressed)
	if want := []NoteEvent{off(1), on(0)}; !reflect.DeepEqual(got, want) {
		t.Errorf("second press: got %v, want %v", got, want)
	}
	if rt.Slot != 0 {
		t.Errorf("second press: slot %d, want 0", rt.Slot)
	}
}

func TestToggleReleaseDoesNothing(t *testing.T) {
	cfg := SwitchConfig{Mode: Toggle, CycleCount: 3}
	rt := SwitchRuntime{Slot: 1}

	if got := ApplyEdge(4, cfg, &rt, Released); len(got) != 0 {
		t.Errorf("release in toggle mode: got %v, want no events", got)
	}
	if rt.Slot != 1 {
		t.Errorf("slot changed on release: %d", rt.Slot)
	}
}

func TestToggleMultiSlotRotates(t *testing.T) {
	cfg := SwitchConfig{Mode: Toggle, CycleCount: 3}
	var rt SwitchRuntime
	id := SwitchID(1)

	want := [][]NoteEvent{
		{off(12), on(13)},
		{off(13), on(14)},
		{off(14), on(12)},
	}
	for i, w := range want {
		got := ApplyEdge(id, cfg, &rt, Pressed)
		if !reflect.DeepEqual(got, w) {
			t.Errorf("press %d: got %v, want %v", i, got, w)
		}
	}
}

func TestNotesAboveRangeAreSkipped(t *testing.T) {
	cfg := SwitchConfig{Mode: Toggle, CycleCount: 10}
	rt := SwitchRuntime{Slot: 7}

	got := ApplyEdge(10, cfg, &rt, Pressed)
	if want := []NoteEvent{off(127)}; !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if rt.Slot != 8 {
		t.Errorf("slot should still advance: got %d", rt.Slot)
	}
}

func TestResyncNotes(t *testing.T) {
	tests := []struct {
		name string
		cfg  SwitchConfig
		rt   SwitchRuntime
		want []NoteEvent
	}{
		{
			name: "instant turns every slot off",
			cfg:  SwitchConfig{Mode: Instant, CycleCount: 2},
			rt:   SwitchRuntime{Slot: 1},
			want: []NoteEvent{off(36), off(37)},
		},
		{
			name: "toggle re-sounds the current slot",
			cfg:  SwitchConfig{Mode: Toggle, CycleCount: 3},
			rt:   SwitchRuntime{Slot: 2},
			want: []NoteEvent{off(36), off(37), on(38)},
		},
		{
			name: "single-slot toggle covers both phases",
			cfg:  SwitchConfig{Mode: Toggle, CycleCount: 1},
			rt:   SwitchRuntime{Slot: 0},
			want: []NoteEvent{off(37), on(36)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResyncNotes(3, tt.cfg, tt.rt)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSwitchConfigValid(t *testing.T) {
	tests := []struct {
		cfg  SwitchConfig
		want bool
	}{
		{DefaultSwitchConfig(), true},
		{SwitchConfig{Mode: Toggle, CycleCount: MaxCycleCount}, true},
		{SwitchConfig{Mode: Toggle, CycleCount: 0}, false},
		{SwitchConfig{Mode: Instant, CycleCount: MaxCycleCount + 1}, false},
		{SwitchConfig{Mode: BehaviorMode(7), CycleCount: 1}, false},
	}
	for _, tt := range tests {
		if got := tt.cfg.Valid(); got != tt.want {
			t.Errorf("%+v.Valid(): got %v, want %v", tt.cfg, got, tt.want)
		}
	}
}
