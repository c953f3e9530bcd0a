// Package config loads the daemon's YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/letterbox-robot/internal/gpio"
	"github.com/sweeney/letterbox-robot/internal/ht0740"
	"github.com/sweeney/letterbox-robot/internal/i2c"
	"github.com/sweeney/letterbox-robot/internal/logic"
	"github.com/sweeney/letterbox-robot/internal/mqtt"
	"github.com/sweeney/letterbox-robot/internal/pir"
)

// Light backends.
const (
	BackendHT0740 = "ht0740"
	BackendGPIO   = "gpio"
	BackendHue    = "hue"
)

// Error reports a missing or invalid configuration key.
type Error struct {
	Key string
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %s", e.Key, e.Msg)
}

// Config is the full daemon configuration.
type Config struct {
	PIR   PIR   `yaml:"pir"`
	Door  Door  `yaml:"door"`
	Light Light `yaml:"light"`
	MQTT  MQTT  `yaml:"mqtt"`
	HTTP  HTTP  `yaml:"http"`
	GPIO  GPIO  `yaml:"gpio"`
	Log   Log   `yaml:"log"`
}

// PIR configures the debounced actuator loop. Pin, I2CAddress and
// TieSwitchToLight are required.
type PIR struct {
	Pin              *int          `yaml:"pin"`
	I2CAddress       *int          `yaml:"i2c_address"`
	TieSwitchToLight *bool         `yaml:"tie_switch_to_light"`
	Tick             time.Duration `yaml:"tick"`
	Limit            int           `yaml:"limit"`
	Boost            int           `yaml:"boost"`
	I2CBus           string        `yaml:"i2c_bus"`
}

// Door configures the contact switch monitor. A nil Pin disables it.
type Door struct {
	Pin          *int          `yaml:"pin"`
	Debounce     time.Duration `yaml:"debounce"`
	LineDebounce time.Duration `yaml:"line_debounce"`
}

// Light selects the lamp backend.
type Light struct {
	Backend   string        `yaml:"backend"`
	Pin       int           `yaml:"pin"`
	PWMPeriod time.Duration `yaml:"pwm_period"`
	Hue       Hue           `yaml:"hue"`
}

// Hue addresses a light on a Hue bridge.
type Hue struct {
	Host string `yaml:"host"`
	User string `yaml:"user"`
	ID   int    `yaml:"id"`
}

// MQTT configures event publishing. An empty Broker disables it.
type MQTT struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// HTTP configures the status server. An empty Addr disables it.
type HTTP struct {
	Addr string `yaml:"addr"`
}

// GPIO names the character device chip.
type GPIO struct {
	Chip string `yaml:"chip"`
}

// Log sets the minimum log level: debug, info, warn or error.
type Log struct {
	Level string `yaml:"level"`
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes, defaults and validates a configuration document.
func Parse(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &Error{Key: "pir.pin", Msg: "required"}
		}
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.PIR.Tick == 0 {
		c.PIR.Tick = pir.DefaultTick
	}
	if c.PIR.Limit == 0 {
		c.PIR.Limit = logic.DefaultLimit
	}
	if c.PIR.Boost == 0 {
		c.PIR.Boost = logic.DefaultBoost
	}
	if c.PIR.I2CBus == "" {
		c.PIR.I2CBus = i2c.DefaultBus
	}
	if c.Door.Debounce == 0 {
		c.Door.Debounce = logic.DefaultDebounce
	}
	if c.Light.Backend == "" {
		c.Light.Backend = BackendHT0740
	}
	if c.Light.Pin == 0 {
		c.Light.Pin = gpio.DefaultPinLight
	}
	if c.Light.PWMPeriod == 0 {
		c.Light.PWMPeriod = gpio.DefaultPWMPeriod
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = mqtt.DefaultClientID
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = mqtt.DefaultPrefix
	}
	c.MQTT.TopicPrefix = strings.TrimSuffix(c.MQTT.TopicPrefix, "/")
	if c.GPIO.Chip == "" {
		c.GPIO.Chip = gpio.DefaultChip
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks required keys and value ranges.
func (c *Config) Validate() error {
	switch {
	case c.PIR.Pin == nil:
		return &Error{Key: "pir.pin", Msg: "required"}
	case c.PIR.I2CAddress == nil:
		return &Error{Key: "pir.i2c_address", Msg: "required"}
	case c.PIR.TieSwitchToLight == nil:
		return &Error{Key: "pir.tie_switch_to_light", Msg: "required"}
	}
	if *c.PIR.Pin < 0 {
		return &Error{Key: "pir.pin", Msg: fmt.Sprintf("invalid pin %d", *c.PIR.Pin)}
	}
	if a := *c.PIR.I2CAddress; a < 0x03 || a > 0x77 {
		return &Error{Key: "pir.i2c_address", Msg: fmt.Sprintf("address 0x%02x out of range", a)}
	}
	if c.PIR.Tick < 0 {
		return &Error{Key: "pir.tick", Msg: "must be positive"}
	}
	if c.PIR.Limit < 1 {
		return &Error{Key: "pir.limit", Msg: "must be at least 1"}
	}
	if c.PIR.Boost < 1 || c.PIR.Boost > c.PIR.Limit {
		return &Error{Key: "pir.boost", Msg: fmt.Sprintf("must be between 1 and limit (%d)", c.PIR.Limit)}
	}
	if c.Door.Pin != nil && *c.Door.Pin < 0 {
		return &Error{Key: "door.pin", Msg: fmt.Sprintf("invalid pin %d", *c.Door.Pin)}
	}
	if c.Door.Debounce < 0 {
		return &Error{Key: "door.debounce", Msg: "must not be negative"}
	}
	if c.Door.LineDebounce < 0 {
		return &Error{Key: "door.line_debounce", Msg: "must not be negative"}
	}

	switch c.Light.Backend {
	case BackendHT0740:
	case BackendGPIO:
		if c.Light.Pin < 0 {
			return &Error{Key: "light.pin", Msg: fmt.Sprintf("invalid pin %d", c.Light.Pin)}
		}
		if c.Light.PWMPeriod < 0 {
			return &Error{Key: "light.pwm_period", Msg: "must be positive"}
		}
	case BackendHue:
		if c.Light.Hue.Host == "" {
			return &Error{Key: "light.hue.host", Msg: "required for hue backend"}
		}
		if c.Light.Hue.User == "" {
			return &Error{Key: "light.hue.user", Msg: "required for hue backend"}
		}
		if c.Light.Hue.ID < 1 {
			return &Error{Key: "light.hue.id", Msg: "required for hue backend"}
		}
	default:
		return &Error{Key: "light.backend", Msg: fmt.Sprintf("unknown backend %q", c.Light.Backend)}
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return &Error{Key: "log.level", Msg: err.Error()}
	}
	return nil
}

// Address returns the HT0740 address, or its default if unset.
func (c *Config) Address() int {
	if c.PIR.I2CAddress == nil {
		return ht0740.DefaultAddress
	}
	return *c.PIR.I2CAddress
}

// Tied reports whether the light follows the switch.
func (c *Config) Tied() bool {
	return c.PIR.TieSwitchToLight != nil && *c.PIR.TieSwitchToLight
}

// DoorEnabled reports whether a door pin is configured.
func (c *Config) DoorEnabled() bool {
	return c.Door.Pin != nil
}

// ParseLevel maps a level name onto slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown level %q", s)
	}
	return l, nil
}
