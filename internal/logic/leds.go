package logic

// Mode indicator LEDs shown next to a switch configuration.
const (
	ledInstant = 1 << 9
	ledToggle  = 1 << 10
)

// RenderLEDs maps bit i of mask to LED i.
func RenderLEDs(mask uint16) [NumLEDs]bool {
	var out [NumLEDs]bool
	for i := 0; i < NumLEDs; i++ {
		out[i] = mask&(1<<uint(i)) != 0
	}
	return out
}

// modeIndicator lights the instant or the toggle indicator.
func modeIndicator(m BehaviorMode) uint16 {
	if m == Toggle {
		return ledToggle
	}
	return ledInstant
}

// configMask shows a confirmed configuration: the LED of the last slot plus
// the mode indicator.
func configMask(cfg SwitchConfig) uint16 {
	var mask uint16
	if cfg.CycleCount >= 1 && cfg.CycleCount <= NumLEDs {
		mask = 1 << uint(cfg.CycleCount-1)
	}
	return mask | modeIndicator(cfg.Mode)
}
