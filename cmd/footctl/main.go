// Command footctl runs the MIDI foot controller: it turns foot switches and
// expression pedals into MIDI notes and controllers, drives the status LEDs
// and publishes telemetry.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sweeney/footctl/internal/adc"
	"github.com/sweeney/footctl/internal/config"
	"github.com/sweeney/footctl/internal/controller"
	"github.com/sweeney/footctl/internal/diag"
	"github.com/sweeney/footctl/internal/evdev"
	"github.com/sweeney/footctl/internal/gpio"
	"github.com/sweeney/footctl/internal/logic"
	"github.com/sweeney/footctl/internal/midi"
	"github.com/sweeney/footctl/internal/mqtt"
	"github.com/sweeney/footctl/internal/status"
	"github.com/sweeney/footctl/internal/storage"
	"github.com/sweeney/footctl/internal/web"
)

// publishQueue is the number of telemetry messages waiting for the broker.
const publishQueue = 64

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("fatal: %v", err)
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(cfg, opts.printConfig); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

type cliOptions struct {
	configPath  string
	printConfig bool
	overrides   config.FlagOverrides
}

func parseFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("footctl", flag.ContinueOnError)
	var o cliOptions
	fs.StringVar(&o.configPath, "config", "", "YAML config file (empty for defaults)")
	fs.BoolVar(&o.printConfig, "print-config", false, "Print the persisted switch configuration and exit")
	source := fs.String("switches", "", "Switch source: gpio or evdev")
	device := fs.String("evdev", "", "evdev device for the evdev switch source")
	debounce := fs.Int("debounce-ms", 0, "Switch debounce in milliseconds")
	port := fs.String("midi-port", "", "MIDI output port name (empty for a virtual port)")
	channel := fs.Int("midi-channel", 0, "MIDI channel 1-16")
	storagePath := fs.String("storage", "", "Persisted configuration image")
	serialPort := fs.String("diag-serial", "", "Serial port for the diagnostic stream (empty for stdout)")
	broker := fs.String("broker", "", "MQTT broker address (empty to disable)")
	heartbeat := fs.Int("heartbeat-ms", 0, "Heartbeat interval in milliseconds (0 to disable)")
	httpAddr := fs.String("http", "", "HTTP status address (empty to disable)")
	logLevel := fs.String("log-level", "", "Log level: error, warn, info or debug")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	// Only flags given on the command line override the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "switches":
			o.overrides.SwitchSource = source
		case "evdev":
			o.overrides.EvdevDevice = device
		case "debounce-ms":
			o.overrides.DebounceMS = debounce
		case "midi-port":
			o.overrides.MIDIPort = port
		case "midi-channel":
			o.overrides.MIDIChannel = channel
		case "storage":
			o.overrides.StoragePath = storagePath
		case "diag-serial":
			o.overrides.DiagSerial = serialPort
		case "broker":
			o.overrides.Broker = broker
		case "heartbeat-ms":
			o.overrides.HeartbeatMS = heartbeat
		case "http":
			o.overrides.HTTPAddr = httpAddr
		case "log-level":
			o.overrides.LogLevel = logLevel
		}
	})
	return o, nil
}

func loadConfig(o cliOptions) (config.Config, error) {
	cfg := config.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadConfigFile(o.configPath); err != nil {
			return config.Config{}, err
		}
	}
	o.overrides.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func run(cfg config.Config, printConfig bool) error {
	logger := config.NewLogger(os.Stdout, cfg.Logging.Level)

	// Persisted switch configuration
	image, err := storage.OpenMmap(cfg.Storage.Path, cfg.Storage.Size)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer image.Close()
	store, err := storage.NewConfigStore(image, config.Ms(cfg.Storage.WriteIntervalMS))
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	configs, err := store.Load()
	if err != nil {
		logger.Error("storage: load failed, using defaults", "err", err)
	}

	if printConfig {
		printConfigs(os.Stdout, configs)
		return nil
	}

	switches, swDebounce, err := openSwitches(cfg, logger)
	if err != nil {
		return err
	}
	defer switches.Close()

	leds, err := gpio.NewRealLEDs(cfg.LEDs.Chip, cfg.LEDs.Lines)
	if err != nil {
		return fmt.Errorf("init leds: %w", err)
	}
	defer leds.Close()

	out, closeDriver, err := openMIDIOut(cfg.MIDI.Port)
	if err != nil {
		return fmt.Errorf("init midi: %w", err)
	}
	defer closeDriver()
	transport, err := midi.NewRealTransport(out)
	if err != nil {
		return err
	}
	defer transport.Close()
	output, err := midi.NewOutput(transport, cfg.MIDI.Channel, cfg.Analog.Controllers)
	if err != nil {
		return fmt.Errorf("init midi: %w", err)
	}

	var diagOut io.Writer = os.Stdout
	if cfg.Diag.SerialPort != "" {
		port, err := diag.OpenSerial(cfg.Diag.SerialPort, cfg.Diag.Baud)
		if err != nil {
			return fmt.Errorf("init diagnostics: %w", err)
		}
		defer port.Close()
		diagOut = port
	}

	start := time.Now()
	engine := logic.NewEngine(configs, logic.Options{
		StableSpread: uint16(cfg.Analog.StabilitySpread),
		SendCooldown: config.Ms(cfg.Analog.SendCooldownMS),
	}, start)

	iio, err := adc.NewIIOReader(cfg.Analog.IIODevice)
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}
	sampler, err := adc.NewSampler(iio, cfg.Analog.Channels, engine, logger)
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}

	tracker := status.NewTracker(start, status.Config{
		TickMs:       int64(cfg.TickMS),
		DebounceMs:   int64(cfg.Switches.DebounceMS),
		HeartbeatMs:  int64(cfg.MQTT.HeartbeatMS),
		SwitchSource: cfg.Switches.Source,
		MIDIPort:     cfg.MIDI.Port,
		MIDIChannel:  cfg.MIDI.Channel,
		Broker:       cfg.MQTT.Broker,
		HTTPAddr:     cfg.HTTP.Addr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	deps := controller.Deps{
		Switches: switches,
		LEDs:     leds,
		MIDI:     output,
		Store:    store,
		Diag:     diag.NewWriter(diagOut, config.Ms(cfg.Diag.IntervalMS), start),
		Tracker:  tracker,
		Logger:   logger,
	}
	if cfg.MQTT.Broker != "" {
		pub, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			BufferSize:  cfg.MQTT.Buffer,
		}, logger)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		async := mqtt.NewAsync(pub, publishQueue, logger)
		defer async.Close()
		deps.Publisher = async
		deps.MQTTStatus = async
		g.Go(func() error { return async.Run(gctx) })
	}

	g.Go(func() error { return sampler.Run(gctx, config.Ms(cfg.Analog.SampleIntervalMS)) })

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, logger)
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			srv.RunFeed(gctx)
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
		logger.Info("http status server listening", "addr", cfg.HTTP.Addr)
	}

	resync := make(chan struct{}, 1)
	if cfg.MIDI.InputPort != "" {
		stop, err := midi.ListenResync(cfg.MIDI.InputPort, uint8(cfg.MIDI.ResyncCC), func() {
			select {
			case resync <- struct{}{}:
			default:
			}
		}, logger)
		if err != nil {
			logger.Warn("midi: resync input unavailable", "err", err)
		} else {
			defer stop()
		}
	}

	ctrl := controller.New(engine, deps, controller.Options{
		Debounce:  swDebounce,
		Heartbeat: config.Ms(cfg.MQTT.HeartbeatMS),
	}, start)
	ctrl.Startup(start)

	logger.Info("started",
		"switches", cfg.Switches.Source,
		"tick", config.Ms(cfg.TickMS),
		"midi_channel", cfg.MIDI.Channel,
		"broker", cfg.MQTT.Broker)

	ticker := time.NewTicker(config.Ms(cfg.TickMS))
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	loopErr := runLoop(gctx, ctrl, logger, time.Now, ticker.C, sigCh, resync)
	cancel()
	// A failed worker cancels gctx; report its error rather than the cancellation.
	if err := g.Wait(); err != nil {
		return err
	}
	return loopErr
}

// openSwitches opens the configured switch source and returns the debounce
// still to be applied in software. GPIO lines are debounced by the kernel.
func openSwitches(cfg config.Config, logger *slog.Logger) (gpio.SwitchReader, time.Duration, error) {
	debounce := config.Ms(cfg.Switches.DebounceMS)
	switch cfg.Switches.Source {
	case config.SourceEvdev:
		sw, err := evdev.Open(cfg.Switches.EvdevDevice, cfg.Switches.EvdevCodes, logger)
		if err != nil {
			return nil, 0, fmt.Errorf("init evdev switches: %w", err)
		}
		return sw, debounce, nil
	default:
		sw, err := gpio.NewRealSwitches(cfg.Switches.Chip, cfg.Switches.Lines, debounce)
		if err != nil {
			return nil, 0, fmt.Errorf("init gpio switches: %w", err)
		}
		return sw, 0, nil
	}
}

// runLoop drives the controller from tick until a signal arrives. The clock,
// tick, signal and resync sources are injected so tests can drive it.
func runLoop(ctx context.Context, ctrl *controller.Controller, logger *slog.Logger, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, resync <-chan struct{}) error {
	for {
		select {
		case s := <-sig:
			name := signalName(s)
			logger.Info("shutting down", "signal", name)
			ctrl.Shutdown(now(), name)
			return nil

		case <-ctx.Done():
			ctrl.Shutdown(now(), "CONTEXT")
			return ctx.Err()

		case <-resync:
			ctrl.Resync(now())

		case <-tick:
			ctrl.Tick(ctx, now())
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func printConfigs(w io.Writer, configs [logic.NumSwitches]logic.SwitchConfig) {
	for i, c := range configs {
		fmt.Fprintf(w, "switch %2d: %-7s cycle=%d\n", i, c.Mode, c.CycleCount)
	}
}
