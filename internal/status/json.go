package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/footctl/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	State         string        `json:"state"`
	Target        *int          `json:"target,omitempty"`
	Ready         bool          `json:"ready"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Switches      []SwitchJSON  `json:"switches"`
	Analog        []ChannelJSON `json:"analog"`
	LEDs          string        `json:"leds"`
	Config        ConfigJSON    `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// SwitchJSON is the JSON representation of one switch.
type SwitchJSON struct {
	Index      int    `json:"index"`
	Mode       string `json:"mode"`
	CycleCount int    `json:"cycle_count"`
	Slot       int    `json:"slot"`
	Presses    int    `json:"presses"`
}

// ChannelJSON is the JSON representation of one analog channel.
type ChannelJSON struct {
	Channel int    `json:"channel"`
	Value   uint16 `json:"value"`
	Enabled bool   `json:"enabled"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs       int64  `json:"tick_ms"`
	DebounceMs   int64  `json:"debounce_ms"`
	HeartbeatMs  int64  `json:"heartbeat_ms"`
	SwitchSource string `json:"switch_source"`
	MIDIPort     string `json:"midi_port"`
	MIDIChannel  int    `json:"midi_channel"`
	Broker       string `json:"broker"`
	HTTPAddr     string `json:"http_addr"`
}

// LEDString renders the LED frame as one character per LED, '#' for lit.
func LEDString(leds [logic.NumLEDs]bool) string {
	b := make([]byte, len(leds))
	for i, on := range leds {
		if on {
			b[i] = '#'
		} else {
			b[i] = '.'
		}
	}
	return string(b)
}

func buildInner(snap Snapshot) StatusInner {
	eng := snap.Engine
	inner := StatusInner{
		State:         eng.State.String(),
		Ready:         snap.Baselined,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Switches:      make([]SwitchJSON, logic.NumSwitches),
		Analog:        make([]ChannelJSON, logic.NumChannels),
		LEDs:          LEDString(snap.LEDs),
		Config: ConfigJSON{
			TickMs:       snap.Config.TickMs,
			DebounceMs:   snap.Config.DebounceMs,
			HeartbeatMs:  snap.Config.HeartbeatMs,
			SwitchSource: snap.Config.SwitchSource,
			MIDIPort:     snap.Config.MIDIPort,
			MIDIChannel:  snap.Config.MIDIChannel,
			Broker:       snap.Config.Broker,
			HTTPAddr:     snap.Config.HTTPAddr,
		},
	}
	if eng.State == logic.Program || eng.State == logic.DisplayConfirmation {
		target := int(eng.Target)
		inner.Target = &target
	}
	for i := range inner.Switches {
		inner.Switches[i] = SwitchJSON{
			Index:      i,
			Mode:       eng.Configs[i].Mode.String(),
			CycleCount: eng.Configs[i].CycleCount,
			Slot:       eng.Slots[i],
			Presses:    snap.Presses[i],
		}
	}
	for i := range inner.Analog {
		inner.Analog[i] = ChannelJSON{Channel: i, Value: eng.Values[i], Enabled: eng.Enabled[i]}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatCompactJSON returns the status on a single line for the live feed.
func FormatCompactJSON(snap Snapshot) []byte {
	data, _ := json.Marshal(StatusJSON{Status: buildInner(snap)})
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
