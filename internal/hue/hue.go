// Package hue drives a Philips Hue lamp as the controller's dimmable light.
package hue

import (
	"fmt"

	"github.com/amimof/huego"
)

// maxBri is the Hue API's maximum brightness.
const maxBri = 254

// StateSetter is the part of *huego.Bridge used here.
type StateSetter interface {
	SetLightState(id int, state huego.State) (*huego.Response, error)
}

// Light is one lamp on a Hue bridge.
type Light struct {
	bridge StateSetter
	id     int
}

// New returns a Light for lamp id on the bridge at host, authenticated as user.
func New(host, user string, id int) *Light {
	return NewWithBridge(huego.New(host, user), id)
}

// NewWithBridge returns a Light using an existing bridge client.
func NewWithBridge(bridge StateSetter, id int) *Light {
	return &Light{bridge: bridge, id: id}
}

// On turns the lamp on at full brightness.
func (l *Light) On() error {
	return l.set(huego.State{On: true, Bri: maxBri})
}

// Off turns the lamp off.
func (l *Light) Off() error {
	return l.set(huego.State{On: false})
}

// SetBrightness maps 1-100 linearly onto the bridge's 1-254 range;
// 0 turns the lamp off.
func (l *Light) SetBrightness(pct int) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("hue: brightness %d out of range 0-100", pct)
	}
	if pct == 0 {
		return l.Off()
	}
	return l.set(huego.State{On: true, Bri: Bri(pct)})
}

// Bri converts a percentage to a Hue brightness value.
func Bri(pct int) uint8 {
	if pct <= 0 {
		return 0
	}
	if pct >= 100 {
		return maxBri
	}
	b := (pct*(maxBri-1) + 50) / 100
	return uint8(b + 1)
}

func (l *Light) set(s huego.State) error {
	if _, err := l.bridge.SetLightState(l.id, s); err != nil {
		return fmt.Errorf("hue light %d: %w", l.id, err)
	}
	return nil
}
