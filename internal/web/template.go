package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/footctl/internal/logic"
	"github.com/sweeney/footctl/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"leds": status.LEDString,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Foot Controller</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.enabled { color: green; font-weight: bold; }
.disabled { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; background: orange; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
</style>
</head>
<body>
<h1>Foot Controller<span id="live-dot" class="live-dot" title="connecting"></span></h1>

<h2>Workflow</h2>
<table>
<tr><th>State</th><td id="state">{{.Engine.State}}</td></tr>
{{if .Programming}}<tr><th>Target</th><td>switch {{.Engine.Target}}</td></tr>{{end}}
<tr><th>LEDs</th><td id="leds">{{leds .LEDs}}</td></tr>
<tr><th>Ready</th><td>{{if .Baselined}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Analog</h2>
<table id="analog">
{{range .Analog}}<tr><th>Channel {{.Channel}}</th><td class="{{if .Enabled}}enabled{{else}}disabled{{end}}">{{if .Enabled}}{{.Value}}{{else}}disabled{{end}}</td></tr>
{{end}}</table>

<h2>Switches</h2>
<table>
<tr><th>#</th><td>mode / slots / current / presses</td></tr>
{{range .Switches}}<tr><th>{{.Index}}</th><td>{{.Mode}} / {{.CycleCount}} / {{.Slot}} / {{.Presses}}</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
<tr><th>MIDI</th><td>{{if .Config.MIDIPort}}{{.Config.MIDIPort}}{{else}}virtual{{end}} ch {{.Config.MIDIChannel}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Switches</th><td>{{.Config.SwitchSource}}, debounce {{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var stateEl = document.getElementById("state");
  var ledsEl = document.getElementById("leds");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var s = JSON.parse(ev.data).status;
        stateEl.textContent = s.state;
        ledsEl.textContent = s.leds;
      } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	data := struct {
		status.Snapshot
		Uptime      time.Duration
		Programming bool
		Analog      []status.ChannelJSON
		Switches    []status.SwitchJSON
	}{
		Snapshot:    snap,
		Uptime:      snap.Uptime(),
		Programming: snap.Engine.State == logic.Program || snap.Engine.State == logic.DisplayConfirmation,
	}
	for i := 0; i < logic.NumChannels; i++ {
		data.Analog = append(data.Analog, status.ChannelJSON{
			Channel: i,
			Value:   snap.Engine.Values[i],
			Enabled: snap.Engine.Enabled[i],
		})
	}
	for i := 0; i < logic.NumSwitches; i++ {
		cfg := snap.Engine.Configs[i]
		data.Switches = append(data.Switches, status.SwitchJSON{
			Index:      i,
			Mode:       cfg.Mode.String(),
			CycleCount: cfg.CycleCount,
			Slot:       snap.Engine.Slots[i],
			Presses:    snap.Presses[i],
		})
	}
	indexTmpl.Execute(w, data)
}
