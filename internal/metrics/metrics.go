// Package metrics exposes the controller's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/letterbox-robot/internal/logic"
)

// Metrics holds the collectors on a private registry. All methods are
// safe on a nil receiver.
type Metrics struct {
	reg *prometheus.Registry

	pirCount     prometheus.Gauge
	switchOn     prometheus.Gauge
	transitions  *prometheus.CounterVec
	doorEvents   *prometheus.CounterVec
	doorOpenTime prometheus.Histogram
	tickErrors   prometheus.Counter
}

// New creates and registers the collectors, plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		pirCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lbr_pir_count",
			Help: "Hysteresis count after the most recent PIR tick.",
		}),
		switchOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lbr_switch_on",
			Help: "1 while the power switch is on.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lbr_switch_transitions_total",
			Help: "Power switch transitions by resulting state.",
		}, []string{"state"}),
		doorEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lbr_door_events_total",
			Help: "Door notifications by state.",
		}, []string{"state"}),
		doorOpenTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lbr_door_open_seconds",
			Help:    "Time the door stood open, observed on close.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 300},
		}),
		tickErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lbr_tick_errors_total",
			Help: "PIR loop iterations that hit a sensor or switch error.",
		}),
	}

	m.reg.MustRegister(
		m.pirCount,
		m.switchOn,
		m.transitions,
		m.doorEvents,
		m.doorOpenTime,
		m.tickErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	for _, s := range []string{"on", "off"} {
		m.transitions.WithLabelValues(s)
	}
	for _, s := range []logic.DoorState{logic.DoorOpen, logic.DoorClosed} {
		m.doorEvents.WithLabelValues(s.String())
	}
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveTick records one PIR loop iteration.
func (m *Metrics) ObserveTick(t logic.Tick) {
	if m == nil {
		return
	}
	m.pirCount.Set(float64(t.Count))
	if t.Err != nil {
		m.tickErrors.Inc()
	}
}

// ObserveSwitch records a power switch transition.
func (m *Metrics) ObserveSwitch(e logic.SwitchEvent) {
	if m == nil {
		return
	}
	if e.On {
		m.switchOn.Set(1)
		m.transitions.WithLabelValues("on").Inc()
		return
	}
	m.switchOn.Set(0)
	m.transitions.WithLabelValues("off").Inc()
}

// ObserveDoor records a door notification.
func (m *Metrics) ObserveDoor(state logic.DoorState, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.doorEvents.WithLabelValues(state.String()).Inc()
	if state == logic.DoorClosed && elapsed > 0 {
		m.doorOpenTime.Observe(elapsed.Seconds())
	}
}
