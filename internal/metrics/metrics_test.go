package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/letterbox-robot/internal/logic"
)

func TestObserveTick(t *testing.T) {
	m := New()

	m.ObserveTick(logic.Tick{Count: 7})
	assert.Equal(t, 7.0, testutil.ToFloat64(m.pirCount))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.tickErrors))

	m.ObserveTick(logic.Tick{Count: 7, Err: errors.New("read failed")})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tickErrors))
}

func TestObserveSwitch(t *testing.T) {
	m := New()

	m.ObserveSwitch(logic.SwitchEvent{On: true})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.switchOn))
	m.ObserveSwitch(logic.SwitchEvent{On: false})
	m.ObserveSwitch(logic.SwitchEvent{On: true})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.switchOn))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("on")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("off")))
}

func TestObserveDoor(t *testing.T) {
	m := New()

	m.ObserveDoor(logic.DoorOpen, 0)
	m.ObserveDoor(logic.DoorClosed, 3500*time.Millisecond)
	m.ObserveDoor(logic.DoorClosed, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.doorEvents.WithLabelValues("OPEN")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.doorEvents.WithLabelValues("CLOSED")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.doorOpenTime))

	expected := `
# HELP lbr_door_open_seconds Time the door stood open, observed on close.
# TYPE lbr_door_open_seconds histogram
lbr_door_open_seconds_bucket{le="0.5"} 0
lbr_door_open_seconds_bucket{le="1"} 0
lbr_door_open_seconds_bucket{le="2"} 0
lbr_door_open_seconds_bucket{le="5"} 1
lbr_door_open_seconds_bucket{le="10"} 1
lbr_door_open_seconds_bucket{le="30"} 1
lbr_door_open_seconds_bucket{le="60"} 1
lbr_door_open_seconds_bucket{le="300"} 1
lbr_door_open_seconds_bucket{le="+Inf"} 1
lbr_door_open_seconds_sum 3.5
lbr_door_open_seconds_count 1
`
	assert.NoError(t, testutil.CollectAndCompare(m.doorOpenTime, strings.NewReader(expected)))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveTick(logic.Tick{Count: 3})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	for _, name := range []string{
		"lbr_pir_count 3",
		"lbr_switch_on",
		`lbr_switch_transitions_total{state="on"} 0`,
		`lbr_door_events_total{state="OPEN"} 0`,
		"lbr_tick_errors_total 0",
		"go_goroutines",
	} {
		assert.Contains(t, string(body), name)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTick(logic.Tick{Count: 1})
		m.ObserveSwitch(logic.SwitchEvent{On: true})
		m.ObserveDoor(logic.DoorClosed, time.Second)
	})
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
