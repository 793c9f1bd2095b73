// Package config loads the footctl daemon configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/footctl/internal/evdev"
	"github.com/sweeney/footctl/internal/gpio"
	"github.com/sweeney/footctl/internal/logic"
	"github.com/sweeney/footctl/internal/midi"
	"github.com/sweeney/footctl/internal/storage"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Switch sources.
const (
	SourceGPIO  = "gpio"
	SourceEvdev = "evdev"
)

// Config is the complete daemon configuration.
type Config struct {
	Switches SwitchesConfig `yaml:"switches"`
	LEDs     LEDsConfig     `yaml:"leds"`
	Analog   AnalogConfig   `yaml:"analog"`
	MIDI     MIDIConfig     `yaml:"midi"`
	Storage  StorageConfig  `yaml:"storage"`
	Diag     DiagConfig     `yaml:"diag"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	TickMS   int            `yaml:"tick_ms"`
}

type SwitchesConfig struct {
	Source      string `yaml:"source"`
	Chip        string `yaml:"chip"`
	Lines       []int  `yaml:"lines"`
	DebounceMS  int    `yaml:"debounce_ms"`
	EvdevDevice string `yaml:"evdev_device"`
	EvdevCodes  []int  `yaml:"evdev_codes"`
}

type LEDsConfig struct {
	Chip  string `yaml:"chip"`
	Lines []int  `yaml:"lines"`
}

type AnalogConfig struct {
	IIODevice        string `yaml:"iio_device"`
	Channels         []int  `yaml:"channels"`
	SampleIntervalMS int    `yaml:"sample_interval_ms"`
	Controllers      []int  `yaml:"controllers"`
	SendCooldownMS   int    `yaml:"send_cooldown_ms"`
	StabilitySpread  int    `yaml:"stability_spread"`
}

type MIDIConfig struct {
	Port      string `yaml:"port"`
	Channel   int    `yaml:"channel"`
	InputPort string `yaml:"input_port"`
	ResyncCC  int    `yaml:"resync_cc"`
}

type StorageConfig struct {
	Path            string `yaml:"path"`
	Size            int    `yaml:"size"`
	WriteIntervalMS int    `yaml:"write_interval_ms"`
}

type DiagConfig struct {
	SerialPort string `yaml:"serial_port"`
	Baud       int    `yaml:"baud"`
	IntervalMS int    `yaml:"interval_ms"`
}

type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	Buffer      int    `yaml:"buffer"`
	HeartbeatMS int    `yaml:"heartbeat_ms"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Switches: SwitchesConfig{
			Source:     SourceGPIO,
			Chip:       gpio.DefaultChip,
			Lines:      append([]int(nil), gpio.DefaultSwitchLines...),
			DebounceMS: 5,
			EvdevCodes: append([]int(nil), evdev.DefaultCodes...),
		},
		LEDs: LEDsConfig{
			Chip:  gpio.DefaultChip,
			Lines: append([]int(nil), gpio.DefaultLEDLines...),
		},
		Analog: AnalogConfig{
			IIODevice:        "/sys/bus/iio/devices/iio:device0",
			Channels:         []int{0, 1, 2},
			SampleIntervalMS: 1,
			Controllers:      append([]int(nil), midi.DefaultControllers...),
			SendCooldownMS:   10,
			StabilitySpread:  0,
		},
		MIDI: MIDIConfig{
			Channel:  1,
			ResyncCC: midi.DefaultResyncCC,
		},
		Storage: StorageConfig{
			Path:            "/var/lib/footctl/eeprom.bin",
			Size:            64,
			WriteIntervalMS: 500,
		},
		Diag: DiagConfig{
			Baud:       9600,
			IntervalMS: 200,
		},
		MQTT: MQTTConfig{
			ClientID:    "footctl",
			TopicPrefix: "footctl",
			Buffer:      100,
			HeartbeatMS: 900000,
		},
		HTTP:    HTTPConfig{Addr: ":8080"},
		Logging: LoggingConfig{Level: "info"},
		TickMS:  1,
	}
}

// LoadConfigFile reads a YAML file over DefaultConfig. Unknown fields and
// trailing documents are rejected.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}
	return cfg, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func checkLines(name string, lines []int, want int) error {
	if len(lines) != want {
		return invalid("%s: got %d entries, need %d", name, len(lines), want)
	}
	seen := make(map[int]bool, len(lines))
	for _, l := range lines {
		if l < 0 {
			return invalid("%s: negative value %d", name, l)
		}
		if seen[l] {
			return invalid("%s: duplicate value %d", name, l)
		}
		seen[l] = true
	}
	return nil
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	switch c.Switches.Source {
	case SourceGPIO:
		if err := checkLines("switches.lines", c.Switches.Lines, logic.NumSwitches); err != nil {
			return err
		}
	case SourceEvdev:
		if c.Switches.EvdevDevice == "" {
			return invalid("switches.evdev_device is required for source %q", SourceEvdev)
		}
		if err := checkLines("switches.evdev_codes", c.Switches.EvdevCodes, logic.NumSwitches); err != nil {
			return err
		}
	default:
		return invalid("switches.source %q (must be gpio or evdev)", c.Switches.Source)
	}
	if c.Switches.DebounceMS < 0 {
		return invalid("switches.debounce_ms %d", c.Switches.DebounceMS)
	}
	if err := checkLines("leds.lines", c.LEDs.Lines, logic.NumLEDs); err != nil {
		return err
	}
	if err := checkLines("analog.channels", c.Analog.Channels, logic.NumChannels); err != nil {
		return err
	}
	if len(c.Analog.Controllers) != logic.NumChannels {
		return invalid("analog.controllers: got %d entries, need %d", len(c.Analog.Controllers), logic.NumChannels)
	}
	for _, cc := range c.Analog.Controllers {
		if cc < 0 || cc > 31 {
			return invalid("analog.controllers: %d out of range 0..31", cc)
		}
	}
	if c.Analog.SampleIntervalMS <= 0 {
		return invalid("analog.sample_interval_ms %d", c.Analog.SampleIntervalMS)
	}
	if c.Analog.SendCooldownMS < 0 {
		return invalid("analog.send_cooldown_ms %d", c.Analog.SendCooldownMS)
	}
	if c.Analog.StabilitySpread < 0 || c.Analog.StabilitySpread > logic.MaxValue {
		return invalid("analog.stability_spread %d", c.Analog.StabilitySpread)
	}
	if c.MIDI.Channel < 1 || c.MIDI.Channel > 16 {
		return invalid("midi.channel %d out of range 1..16", c.MIDI.Channel)
	}
	if c.MIDI.ResyncCC < 0 || c.MIDI.ResyncCC > 127 {
		return invalid("midi.resync_cc %d out of range 0..127", c.MIDI.ResyncCC)
	}
	if c.Storage.Path == "" {
		return invalid("storage.path is empty")
	}
	if c.Storage.Size < storage.MinSize {
		return invalid("storage.size %d below %d", c.Storage.Size, storage.MinSize)
	}
	if c.Storage.WriteIntervalMS < 0 {
		return invalid("storage.write_interval_ms %d", c.Storage.WriteIntervalMS)
	}
	if c.Diag.IntervalMS <= 0 {
		return invalid("diag.interval_ms %d", c.Diag.IntervalMS)
	}
	if c.Diag.SerialPort != "" && c.Diag.Baud <= 0 {
		return invalid("diag.baud %d", c.Diag.Baud)
	}
	if c.MQTT.HeartbeatMS < 0 {
		return invalid("mqtt.heartbeat_ms %d", c.MQTT.HeartbeatMS)
	}
	if _, err := ParseLogLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.TickMS <= 0 {
		return invalid("tick_ms %d", c.TickMS)
	}
	return nil
}

// Ms converts a millisecond setting to a Duration.
func Ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// ParseLogLevel converts error|warn|info|debug to a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "error":
		return slog.LevelError, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	}
	return 0, fmt.Errorf("invalid log level: %s (must be error, warn, info, or debug)", level)
}

// FlagOverrides are command-line values applied over the file. A nil field
// leaves the file value alone.
type FlagOverrides struct {
	SwitchSource *string
	EvdevDevice  *string
	DebounceMS   *int
	MIDIPort     *string
	MIDIChannel  *int
	StoragePath  *string
	DiagSerial   *string
	Broker       *string
	HeartbeatMS  *int
	HTTPAddr     *string
	LogLevel     *string
}

// Apply merges the overrides into cfg.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.SwitchSource != nil {
		cfg.Switches.Source = *o.SwitchSource
	}
	if o.EvdevDevice != nil {
		cfg.Switches.EvdevDevice = *o.EvdevDevice
	}
	if o.DebounceMS != nil {
		cfg.Switches.DebounceMS = *o.DebounceMS
	}
	if o.MIDIPort != nil {
		cfg.MIDI.Port = *o.MIDIPort
	}
	if o.MIDIChannel != nil {
		cfg.MIDI.Channel = *o.MIDIChannel
	}
	if o.StoragePath != nil {
		cfg.Storage.Path = *o.StoragePath
	}
	if o.DiagSerial != nil {
		cfg.Diag.SerialPort = *o.DiagSerial
	}
	if o.Broker != nil {
		cfg.MQTT.Broker = *o.Broker
	}
	if o.HeartbeatMS != nil {
		cfg.MQTT.HeartbeatMS = *o.HeartbeatMS
	}
	if o.HTTPAddr != nil {
		cfg.HTTP.Addr = *o.HTTPAddr
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}
