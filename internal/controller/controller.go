// Package controller runs one tick of the foot controller: it reads the
// switches, feeds the engine and fans the resulting effects out to MIDI, the
// LEDs, storage, the diagnostic stream, telemetry and the status tracker.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sweeney/footctl/internal/gpio"
	"github.com/sweeney/footctl/internal/logic"
	"github.com/sweeney/footctl/internal/mqtt"
	"github.com/sweeney/footctl/internal/status"
)

// MIDI sends engine output. *midi.Output satisfies it.
type MIDI interface {
	SendNotes(notes []logic.NoteEvent) error
	SendControls(ccs []logic.ControlChange) error
}

// ConfigSaver persists a switch configuration. *storage.ConfigStore satisfies it.
type ConfigSaver interface {
	Save(ctx context.Context, id logic.SwitchID, cfg logic.SwitchConfig) error
}

// DiagWriter emits the periodic diagnostic line. *diag.Writer satisfies it.
type DiagWriter interface {
	Tick(now time.Time, values [logic.NumChannels]uint16) (bool, error)
}

// Deps are the collaborators of a Controller. Diag, Publisher, MQTTStatus
// and Tracker are optional.
type Deps struct {
	Switches   gpio.SwitchReader
	LEDs       gpio.LEDWriter
	MIDI       MIDI
	Store      ConfigSaver
	Diag       DiagWriter
	Publisher  mqtt.Publisher
	MQTTStatus mqtt.ConnectionStatus
	Tracker    *status.Tracker
	Logger     *slog.Logger
}

// Options tunes a Controller.
type Options struct {
	// Debounce is applied in software on top of the switch source.
	Debounce time.Duration
	// Heartbeat is the telemetry heartbeat interval; 0 disables it.
	Heartbeat time.Duration
}

// Controller owns the engine and the edge detector. It is driven from a
// single goroutine; only the engine's AddSample may be called concurrently.
type Controller struct {
	d        Deps
	opts     Options
	engine   *logic.Engine
	detector *logic.EdgeDetector

	readFailing bool
	ledFailing  bool
	frame       [logic.NumLEDs]bool
	frameSent   bool
}

// New creates a Controller around engine.
func New(engine *logic.Engine, d Deps, opts Options, start time.Time) *Controller {
	return &Controller{
		d:        d,
		opts:     opts,
		engine:   engine,
		detector: logic.NewEdgeDetector(opts.Debounce, start),
	}
}

// Engine returns the controlled engine.
func (c *Controller) Engine() *logic.Engine {
	return c.engine
}

// Tick runs one control cycle at now. Hardware and transport errors are
// logged and never abort the cycle. Persistence may block for up to one
// storage write interval, or until ctx is done.
func (c *Controller) Tick(ctx context.Context, now time.Time) {
	edges := c.readEdges(now)
	for _, e := range edges {
		c.d.Logger.Debug("switch: edge", "switch", e.Switch, "kind", e.Kind)
	}

	fx := c.engine.HandleEdges(now, edges)
	c.sendNotes(fx.Notes)
	if ccs := c.engine.Controls(now); len(ccs) > 0 {
		if err := c.d.MIDI.SendControls(ccs); err != nil {
			c.d.Logger.Warn("midi: send controls failed", "err", err)
		}
	}

	c.writeLEDs(logic.RenderLEDs(c.engine.LEDMask(now)))

	for _, p := range fx.Persist {
		c.persist(ctx, now, p)
	}
	for _, tr := range fx.Transitions {
		c.transition(now, tr)
	}

	if c.d.Diag != nil && c.engine.State() == logic.Normal {
		if _, err := c.d.Diag.Tick(now, c.engine.Values()); err != nil {
			c.d.Logger.Warn("diag: write failed", "err", err)
		}
	}

	if hb := c.detector.CheckHeartbeat(now, c.opts.Heartbeat); hb != nil {
		c.heartbeat(hb)
	}

	c.updateTracker()
}

// Resync re-sends the note state of every switch, for listeners that missed
// note-offs.
func (c *Controller) Resync(now time.Time) {
	c.d.Logger.Info("midi: resync", "state", c.engine.State())
	c.sendNotes(c.engine.ResendAllNotes())
}

// Startup publishes the STARTUP event with a full status snapshot.
func (c *Controller) Startup(now time.Time) {
	c.publishStatus(now, mqtt.EventStartup, "", true)
}

// Shutdown publishes the SHUTDOWN event and blanks the LEDs.
func (c *Controller) Shutdown(now time.Time, reason string) {
	c.publishStatus(now, mqtt.EventShutdown, reason, true)
	if err := c.d.LEDs.Write([logic.NumLEDs]bool{}); err != nil {
		c.d.Logger.Warn("led: clear failed", "err", err)
	}
}

func (c *Controller) readEdges(now time.Time) []logic.Edge {
	levels, err := c.d.Switches.Read()
	if err != nil {
		if !c.readFailing {
			c.d.Logger.Error("switch: read failed", "err", err)
			c.readFailing = true
		}
		return nil
	}
	if c.readFailing {
		c.d.Logger.Info("switch: read recovered")
		c.readFailing = false
	}
	return c.detector.Process(now, levels)
}

func (c *Controller) sendNotes(notes []logic.NoteEvent) {
	if len(notes) == 0 {
		return
	}
	if err := c.d.MIDI.SendNotes(notes); err != nil {
		c.d.Logger.Warn("midi: send notes failed", "err", err)
	}
}

// writeLEDs only touches the hardware when the frame changes.
func (c *Controller) writeLEDs(frame [logic.NumLEDs]bool) {
	if c.frameSent && frame == c.frame {
		return
	}
	if err := c.d.LEDs.Write(frame); err != nil {
		if !c.ledFailing {
			c.d.Logger.Error("led: write failed", "err", err)
			c.ledFailing = true
		}
		return
	}
	c.ledFailing = false
	c.frame = frame
	c.frameSent = true
}

func (c *Controller) persist(ctx context.Context, now time.Time, p logic.PersistRequest) {
	if err := c.d.Store.Save(ctx, p.Switch, p.Config); err != nil {
		c.d.Logger.Error("storage: save failed", "switch", p.Switch, "err", err)
		return
	}
	c.d.Logger.Info("storage: saved", "switch", p.Switch, "mode", p.Config.Mode, "cycle_count", p.Config.CycleCount)
	if c.d.Publisher == nil {
		return
	}
	if err := c.d.Publisher.PublishConfig(mqtt.ConfigEvent{Timestamp: now, Switch: p.Switch, Config: p.Config}); err != nil {
		c.d.Logger.Warn("mqtt: publish config failed", "err", err)
	}
}

func (c *Controller) transition(now time.Time, tr logic.Transition) {
	c.d.Logger.Info("workflow: transition", "from", tr.From, "to", tr.To)
	if c.d.Publisher == nil {
		return
	}
	event := mqtt.SystemEvent{
		Timestamp: now,
		Event:     mqtt.EventWorkflow,
		Reason:    fmt.Sprintf("%s->%s", tr.From, tr.To),
	}
	if err := c.d.Publisher.PublishSystem(event); err != nil {
		c.d.Logger.Warn("mqtt: publish workflow failed", "err", err)
	}
}

func (c *Controller) heartbeat(hb *logic.Heartbeat) {
	c.d.Logger.Info("heartbeat", "uptime", hb.Uptime.Truncate(time.Second), "state", c.engine.State())
	if c.d.Publisher == nil {
		return
	}
	snap := c.engine.Snapshot()
	diag := mqtt.Diagnostics{Timestamp: hb.Timestamp, Values: snap.Values, Enabled: snap.Enabled}
	if err := c.d.Publisher.PublishDiagnostics(diag); err != nil {
		c.d.Logger.Warn("mqtt: publish diagnostics failed", "err", err)
	}
	c.updateTracker()
	c.publishStatus(hb.Timestamp, mqtt.EventHeartbeat, "", false)
}

func (c *Controller) publishStatus(now time.Time, event, reason string, retained bool) {
	if c.d.Publisher == nil {
		return
	}
	e := mqtt.SystemEvent{Timestamp: now, Event: event, Reason: reason, Retained: retained}
	if c.d.Tracker != nil {
		c.updateTracker()
		e.RawPayload = status.FormatStatusEvent(c.d.Tracker.Snapshot(), event, reason)
	}
	if err := c.d.Publisher.PublishSystem(e); err != nil {
		c.d.Logger.Warn("mqtt: publish failed", "event", event, "err", err)
	}
}

func (c *Controller) updateTracker() {
	if c.d.Tracker == nil {
		return
	}
	c.d.Tracker.Update(c.engine.Snapshot(), c.frame, c.detector.IsBaselined(), c.detector.Presses())
	if c.d.MQTTStatus != nil {
		c.d.Tracker.SetMQTTConnected(c.d.MQTTStatus.IsConnected())
	}
}
