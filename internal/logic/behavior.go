package logic

// NoteFor returns the note for a switch slot: switches sit an octave apart and
// slots a semitone apart within it. ok is false above the MIDI note range.
func NoteFor(id SwitchID, slot int) (note uint8, ok bool) {
	n := int(id)*12 + slot
	if n < 0 || n > 127 {
		return 0, false
	}
	return uint8(n), true
}

// slotCount is the number of slots a switch rotates through. A single-slot
// toggle still alternates between two phases.
func slotCount(cfg SwitchConfig) int {
	if cfg.Mode == Toggle && cfg.CycleCount <= 1 {
		return 2
	}
	if cfg.CycleCount < 1 {
		return 1
	}
	return cfg.CycleCount
}

// ApplyEdge turns one edge of switch id into note events and advances the
// runtime slot according to the switch's behavior mode.
func ApplyEdge(id SwitchID, cfg SwitchConfig, rt *SwitchRuntime, kind EdgeKind) []NoteEvent {
	var out []NoteEvent

	switch kind {
	case Pressed:
		switch cfg.Mode {
		case Toggle:
			out = appendNote(out, id, rt.Slot, false)
			rt.Slot = (rt.Slot + 1) % slotCount(cfg)
			out = appendNote(out, id, rt.Slot, true)
		case Instant:
			out = appendNote(out, id, rt.Slot, true)
		}

	case Released:
		switch cfg.Mode {
		case Instant:
			out = appendNote(out, id, rt.Slot, false)
			rt.Slot = (rt.Slot + 1) % slotCount(cfg)
		case Toggle:
			// Latched until the next press.
		}
	}

	return out
}

// ResyncNotes re-sends the note state implied by a switch's current slot:
// note-off for every slot but the sounding one, and note-on for a toggle's
// current slot. Instant switches end with every slot off.
func ResyncNotes(id SwitchID, cfg SwitchConfig, rt SwitchRuntime) []NoteEvent {
	var out []NoteEvent
	n := slotCount(cfg)
	for slot := 0; slot < n; slot++ {
		if cfg.Mode == Toggle && slot == rt.Slot {
			continue
		}
		out = appendNote(out, id, slot, false)
	}
	if cfg.Mode == Toggle {
		out = appendNote(out, id, rt.Slot, true)
	}
	return out
}

func appendNote(out []NoteEvent, id SwitchID, slot int, on bool) []NoteEvent {
	note, ok := NoteFor(id, slot)
	if !ok {
		return out
	}
	vel := uint8(VelocityOff)
	if on {
		vel = VelocityOn
	}
	return append(out, NoteEvent{On: on, Note: note, Velocity: vel})
}
