package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/letterbox-robot/internal/status"
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
	"seconds": func(d time.Duration) string {
		return fmt.Sprintf("%.1fs", d.Seconds())
	},
	"doorClass": func(s string) string {
		switch s {
		case "OPEN":
			return "on"
		case "CLOSED":
			return "off"
		}
		return "unknown"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Letterbox</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Letterbox</h1>

<h2>State</h2>
<table>
<tr><th>PIR loop</th><td class="{{if .Enabled}}on{{else}}off{{end}}">{{if .Enabled}}enabled{{else}}disabled{{end}}</td></tr>
<tr><th>Switch</th><td id="switch-state" class="{{if .SwitchOn}}on{{else}}off{{end}}">{{if .SwitchOn}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Count</th><td>{{.Count}} / {{.Config.Limit}}</td></tr>
<tr><th>Door</th><td id="door-state" class="{{doorClass .Door.String}}">{{.Door.String}}</td></tr>
<tr><th>Last opening</th><td>{{seconds .LastOpen}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Door OPEN</th><td>{{.Counts.DoorOpen}}</td></tr>
<tr><th>Door CLOSED</th><td>{{.Counts.DoorClose}}</td></tr>
<tr><th>Switch ON</th><td>{{.Counts.SwitchOn}}</td></tr>
<tr><th>Switch OFF</th><td>{{.Counts.SwitchOff}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Boost</th><td>{{.Config.Boost}}</td></tr>
<tr><th>Door debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Light</th><td>{{.Config.LightBackend}}{{if .Config.TieSwitchToLight}} (follows switch){{else}} (indicator){{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
