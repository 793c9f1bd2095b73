// Package mqtt provides telemetry publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/footctl/internal/logic"
)

// DefaultTopicPrefix is prepended to every topic.
const DefaultTopicPrefix = "footctl"

// Topics are the topics the publisher writes to.
type Topics struct {
	Diagnostics string
	Config      string
	System      string
}

// NewTopics derives the topics from prefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{
		Diagnostics: prefix + "/diagnostics",
		Config:      prefix + "/config",
		System:      prefix + "/system",
	}
}

// Publisher publishes controller telemetry.
type Publisher interface {
	// PublishDiagnostics sends the current analog values.
	// Returns error if publishing fails (should not crash the process).
	PublishDiagnostics(d Diagnostics) error

	// PublishConfig sends a persisted switch configuration.
	PublishConfig(c ConfigEvent) error

	// PublishSystem sends a lifecycle or workflow event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// System event names.
const (
	EventStartup     = "STARTUP"
	EventShutdown    = "SHUTDOWN"
	EventHeartbeat   = "HEARTBEAT"
	EventWorkflow    = "WORKFLOW"
	EventConfigSaved = "CONFIG_SAVED"
	EventReconnected = "RECONNECTED"
)

// SystemEvent is a lifecycle or workflow event.
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "WORKFLOW"
	Reason     string // e.g., "SIGTERM" (shutdown) or "PROGRAM" (workflow)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Diagnostics is one sample of the analog channels.
type Diagnostics struct {
	Timestamp time.Time
	Values    [logic.NumChannels]uint16
	Enabled   [logic.NumChannels]bool
}

// ConfigEvent reports a switch configuration written to storage.
type ConfigEvent struct {
	Timestamp time.Time
	Switch    logic.SwitchID
	Config    logic.SwitchConfig
}

// DiagnosticsPayload is the JSON payload for Diagnostics.
type DiagnosticsPayload struct {
	Timestamp string        `json:"timestamp"`
	Channels  []ChannelJSON `json:"channels"`
}

// ChannelJSON is one analog channel.
type ChannelJSON struct {
	Channel int    `json:"channel"`
	Value   uint16 `json:"value"`
	Enabled bool   `json:"enabled"`
}

// FormatDiagnosticsPayload creates the JSON payload for a diagnostics sample.
func FormatDiagnosticsPayload(d Diagnostics) ([]byte, error) {
	p := DiagnosticsPayload{
		Timestamp: d.Timestamp.UTC().Format(time.RFC3339Nano),
		Channels:  make([]ChannelJSON, 0, logic.NumChannels),
	}
	for i := range d.Values {
		p.Channels = append(p.Channels, ChannelJSON{Channel: i, Value: d.Values[i], Enabled: d.Enabled[i]})
	}
	return json.Marshal(p)
}

// ConfigPayload is the JSON payload for a ConfigEvent.
type ConfigPayload struct {
	Timestamp  string `json:"timestamp"`
	Event      string `json:"event"`
	Switch     int    `json:"switch"`
	Mode       string `json:"mode"`
	CycleCount int    `json:"cycle_count"`
}

// FormatConfigPayload creates the JSON payload for a saved configuration.
func FormatConfigPayload(c ConfigEvent) ([]byte, error) {
	return json.Marshal(ConfigPayload{
		Timestamp:  c.Timestamp.UTC().Format(time.RFC3339),
		Event:      EventConfigSaved,
		Switch:     int(c.Switch),
		Mode:       c.Config.Mode.String(),
		CycleCount: c.Config.CycleCount,
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED, WORKFLOW) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}
	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
