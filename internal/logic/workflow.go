package logic

import "time"

// Workflow timing. Every non-Normal state times out back to Normal.
const (
	SelectTimeout  = 10 * time.Second
	ProgramTimeout = 10 * time.Second
	ConfirmTimeout = 5 * time.Second

	// ConfirmBlink is the half-period of the confirmation display.
	ConfirmBlink = 500 * time.Millisecond

	// FlashDuration is how long a changed slot is flashed in Normal.
	FlashDuration = time.Second
	// FlashBlink is the half-period of the slot flash.
	FlashBlink = 100 * time.Millisecond
)

// HandleEdges processes one tick's switch edges in the current workflow state
// and then applies state timeouts. Edges arriving after a transition in the
// same tick are dropped, except in Normal where every edge is played.
func (e *Engine) HandleEdges(now time.Time, edges []Edge) Effects {
	var fx Effects

	switch e.state {
	case SelectTarget:
		e.detectStable()
		for _, edge := range edges {
			if edge.Kind != Pressed || !edge.Switch.Valid() {
				continue
			}
			if edge.Switch == ExitSwitch {
				fx.Notes = append(fx.Notes, e.ResendAllNotes()...)
				e.enter(Normal, now, &fx)
			} else {
				e.target = edge.Switch
				e.saved = e.configs[e.target]
				e.enter(Program, now, &fx)
			}
			break
		}

	case Program:
		for _, edge := range edges {
			if edge.Kind != Pressed || !edge.Switch.Valid() {
				continue
			}
			cfg := e.configs[e.target]
			if edge.Switch == ExitSwitch {
				// Mode toggles in place; nothing is persisted until a count is chosen.
				if cfg.Mode == Toggle {
					cfg.Mode = Instant
				} else {
					cfg.Mode = Toggle
				}
				e.configs[e.target] = cfg
				continue
			}
			cfg.CycleCount = int(edge.Switch) + 1
			e.configs[e.target] = cfg
			e.runtimes[e.target] = SwitchRuntime{}
			fx.Persist = append(fx.Persist, PersistRequest{Switch: e.target, Config: cfg})
			e.enter(DisplayConfirmation, now, &fx)
			break
		}

	case DisplayConfirmation:
		// Input is ignored until the confirmation times out.

	case Normal:
		reenter := false
		for _, edge := range edges {
			if !edge.Switch.Valid() {
				continue
			}
			fx.Notes = append(fx.Notes, e.playEdge(now, edge)...)
			if edge.Kind == Pressed && edge.Switch == ExitSwitch {
				reenter = true
			}
		}
		if reenter {
			e.EnterSelect(now, &fx)
		}
	}

	e.checkTimeout(now, &fx)
	return fx
}

// EnterSelect resets calibration and re-enters SelectTarget.
func (e *Engine) EnterSelect(now time.Time, fx *Effects) {
	for _, c := range e.calibrators {
		c.Reset()
	}
	e.enter(SelectTarget, now, fx)
}

func (e *Engine) playEdge(now time.Time, edge Edge) []NoteEvent {
	id := edge.Switch
	cfg := e.configs[id]
	before := e.runtimes[id].Slot
	notes := ApplyEdge(id, cfg, &e.runtimes[id], edge.Kind)
	if after := e.runtimes[id].Slot; after != before && cfg.CycleCount > 1 {
		e.flash = flashFeedback{active: true, slot: after, since: now}
	}
	return notes
}

func (e *Engine) detectStable() {
	for _, c := range e.calibrators {
		c.DetectStable()
	}
}

func (e *Engine) enter(s WorkflowState, now time.Time, fx *Effects) {
	if fx != nil {
		fx.Transitions = append(fx.Transitions, Transition{From: e.state, To: s})
	}
	e.state = s
	e.enteredAt = now
	if s != Normal {
		e.flash = flashFeedback{}
	}
}

func (e *Engine) checkTimeout(now time.Time, fx *Effects) {
	elapsed := now.Sub(e.enteredAt)
	switch e.state {
	case SelectTarget:
		if elapsed > SelectTimeout {
			e.enter(Normal, now, fx)
		}
	case Program:
		if elapsed > ProgramTimeout {
			// Abandoned edit: drop the unpersisted mode change.
			e.configs[e.target] = e.saved
			e.enter(Normal, now, fx)
		}
	case DisplayConfirmation:
		if elapsed > ConfirmTimeout {
			e.enter(Normal, now, fx)
		}
	case Normal:
	}
}

// LEDMask computes the LED bitmask for the current state at time now.
func (e *Engine) LEDMask(now time.Time) uint16 {
	elapsed := now.Sub(e.enteredAt)

	switch e.state {
	case SelectTarget:
		mask := uint16(ledInstant | ledToggle)
		for i, c := range e.calibrators {
			if c.Enabled() {
				mask |= 1 << uint(i)
			}
		}
		return mask

	case Program:
		return 1<<uint(e.target) | modeIndicator(e.configs[e.target].Mode)

	case DisplayConfirmation:
		if (elapsed/ConfirmBlink)%2 == 1 {
			return 1 << uint(e.target)
		}
		return configMask(e.configs[e.target])

	case Normal:
		if e.flash.active {
			since := now.Sub(e.flash.since)
			if since < FlashDuration {
				if (since/FlashBlink)%2 == 0 {
					return 1 << uint(e.flash.slot)
				}
				return 0
			}
		}
		var mask uint16
		for i := 0; i < NumSwitches; i++ {
			if e.configs[i].Mode == Toggle && e.runtimes[i].Slot == 0 {
				mask |= 1 << uint(i)
			}
		}
		return mask
	}
	return 0
}
