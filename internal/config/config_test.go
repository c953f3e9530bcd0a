package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/letterbox-robot/internal/mqtt"
)

const minimal = `
pir:
  pin: 24
  i2c_address: 0x38
  tie_switch_to_light: true
`

func TestParseMinimalAppliesDefaults(t *testing.T) {
	c, err := Parse(strings.NewReader(minimal))
	require.NoError(t, err)

	assert.Equal(t, 24, *c.PIR.Pin)
	assert.Equal(t, 0x38, c.Address())
	assert.True(t, c.Tied())
	assert.Equal(t, time.Second, c.PIR.Tick)
	assert.Equal(t, 10, c.PIR.Limit)
	assert.Equal(t, 5, c.PIR.Boost)
	assert.Equal(t, "/dev/i2c-1", c.PIR.I2CBus)
	assert.Equal(t, 300*time.Millisecond, c.Door.Debounce)
	assert.False(t, c.DoorEnabled())
	assert.Equal(t, BackendHT0740, c.Light.Backend)
	assert.Equal(t, mqtt.DefaultClientID, c.MQTT.ClientID)
	assert.Equal(t, mqtt.DefaultPrefix, c.MQTT.TopicPrefix)
	assert.Equal(t, "gpiochip0", c.GPIO.Chip)
	assert.Equal(t, "info", c.Log.Level)
	assert.Empty(t, c.MQTT.Broker)
	assert.Empty(t, c.HTTP.Addr)
}

func TestParseFull(t *testing.T) {
	doc := `
pir:
  pin: 24
  i2c_address: 0x39
  tie_switch_to_light: false
  tick: 500ms
  limit: 20
  boost: 8
door:
  pin: 7
  debounce: 250ms
  line_debounce: 5ms
light:
  backend: hue
  hue:
    host: 192.168.1.10
    user: abc
    id: 3
mqtt:
  broker: tcp://192.168.1.200:1883
  topic_prefix: home/letterbox/
http:
  addr: ":8080"
log:
  level: debug
`
	c, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, 0x39, c.Address())
	assert.False(t, c.Tied())
	assert.Equal(t, 500*time.Millisecond, c.PIR.Tick)
	assert.Equal(t, 20, c.PIR.Limit)
	assert.Equal(t, 8, c.PIR.Boost)
	require.True(t, c.DoorEnabled())
	assert.Equal(t, 7, *c.Door.Pin)
	assert.Equal(t, 250*time.Millisecond, c.Door.Debounce)
	assert.Equal(t, 5*time.Millisecond, c.Door.LineDebounce)
	assert.Equal(t, Hue{Host: "192.168.1.10", User: "abc", ID: 3}, c.Light.Hue)
	assert.Equal(t, "home/letterbox", c.MQTT.TopicPrefix, "trailing slash trimmed")
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestRequiredKeys(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		key  string
	}{
		{"empty", "", "pir.pin"},
		{"no pin", "pir:\n  i2c_address: 0x38\n  tie_switch_to_light: true\n", "pir.pin"},
		{"no address", "pir:\n  pin: 24\n  tie_switch_to_light: true\n", "pir.i2c_address"},
		{"no tie", "pir:\n  pin: 24\n  i2c_address: 0x38\n", "pir.tie_switch_to_light"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			var cerr *Error
			require.True(t, errors.As(err, &cerr), "got %v", err)
			assert.Equal(t, tt.key, cerr.Key)
		})
	}
}

func TestTieFalseIsPresent(t *testing.T) {
	c, err := Parse(strings.NewReader("pir:\n  pin: 24\n  i2c_address: 0x38\n  tie_switch_to_light: false\n"))
	require.NoError(t, err)
	assert.False(t, c.Tied())
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		extra string
		key   string
	}{
		{"boost above limit", "  limit: 3\n  boost: 4\n", "pir.boost"},
		{"negative tick", "  tick: -1s\n", "pir.tick"},
		{"unknown backend", "light:\n  backend: neon\n", "light.backend"},
		{"hue without host", "light:\n  backend: hue\n", "light.hue.host"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"negative door pin", "door:\n  pin: -1\n", "door.pin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := minimal + tt.extra
			_, err := Parse(strings.NewReader(doc))
			var cerr *Error
			require.True(t, errors.As(err, &cerr), "got %v", err)
			assert.Equal(t, tt.key, cerr.Key)
		})
	}
}

func TestAddressOutOfRange(t *testing.T) {
	_, err := Parse(strings.NewReader("pir:\n  pin: 24\n  i2c_address: 0x80\n  tie_switch_to_light: true\n"))
	var cerr *Error
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "pir.i2c_address", cerr.Key)
	assert.Contains(t, cerr.Error(), "0x80")
}

func TestUnknownFieldRejected(t *testing.T) {
	_, err := Parse(strings.NewReader(minimal + "bogus: 1\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "letterbox.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 24, *c.PIR.Pin)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("chatty")
	assert.Error(t, err)
}
