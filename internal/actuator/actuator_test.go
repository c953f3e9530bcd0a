package actuator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLightEnableDisable(t *testing.T) {
	out := NewFakeOutput()
	l := NewLight(out, nil)

	require.NoError(t, l.Enable())
	assert.Equal(t, ModeFull, l.Mode())

	require.NoError(t, l.Disable())
	assert.Equal(t, ModeOff, l.Mode())
	assert.Equal(t, []string{"on", "off"}, out.Calls())
}

func TestLightPWM(t *testing.T) {
	out := NewFakeOutput()
	l := NewLight(out, nil)

	require.NoError(t, l.PWM(40))
	assert.Equal(t, ModePWM, l.Mode())
	assert.Equal(t, 40, l.Duty())
	assert.Equal(t, 40, out.Duty())
}

func TestLightPWMReinvocationRejected(t *testing.T) {
	out := NewFakeOutput()
	l := NewLight(out, nil)

	require.NoError(t, l.PWM(40))
	require.NoError(t, l.PWM(80), "rejection is a warning, not an error")

	assert.Equal(t, 40, l.Duty(), "duty cycle must not change in place")
	assert.Equal(t, []string{"pwm"}, out.Calls())

	// Disable then PWM again is the supported way to change duty cycle
	require.NoError(t, l.Disable())
	require.NoError(t, l.PWM(80))
	assert.Equal(t, 80, l.Duty())
	assert.Equal(t, []string{"pwm", "off", "pwm"}, out.Calls())
}

func TestLightModesMutuallyExclusive(t *testing.T) {
	out := NewFakeOutput()
	l := NewLight(out, nil)

	require.NoError(t, l.PWM(50))
	require.NoError(t, l.Enable())
	assert.Equal(t, ModePWM, l.Mode(), "enable while in pwm mode is ignored")

	require.NoError(t, l.Disable())
	require.NoError(t, l.Enable())
	require.NoError(t, l.PWM(20))
	assert.Equal(t, ModeFull, l.Mode(), "pwm while fully on is ignored")

	assert.Equal(t, []string{"pwm", "off", "on"}, out.Calls())
}

func TestLightPWMRange(t *testing.T) {
	out := NewFakeOutput()
	l := NewLight(out, nil)

	assert.ErrorIs(t, l.PWM(-1), ErrDutyCycle)
	assert.ErrorIs(t, l.PWM(101), ErrDutyCycle)
	assert.Empty(t, out.Calls())

	require.NoError(t, l.PWM(0))
	require.NoError(t, l.Disable())
	require.NoError(t, l.PWM(100))
}

func TestLightDisableFromPWMClearsMarker(t *testing.T) {
	out := NewFakeOutput()
	l := NewLight(out, nil)

	require.NoError(t, l.PWM(30))
	require.NoError(t, l.Close())
	assert.Equal(t, ModeOff, l.Mode())
	assert.Equal(t, 0, l.Duty())
	assert.Equal(t, "off", out.Calls()[len(out.Calls())-1])
}

func TestLightWriteErrorKeepsMode(t *testing.T) {
	out := NewFakeOutput()
	out.SetError(errors.New("bus fault"))
	l := NewLight(out, nil)

	assert.Error(t, l.Enable())
	assert.Equal(t, ModeOff, l.Mode())
	assert.Error(t, l.PWM(10))
	assert.Equal(t, ModeOff, l.Mode())
}

func TestRelay(t *testing.T) {
	sw := NewFakeSwitch()
	r := NewRelay(sw, nil)

	require.NoError(t, r.Enable())
	on, err := r.IsOn()
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, r.Close())
	on, err = r.IsOn()
	require.NoError(t, err)
	assert.False(t, on)

	ons, offs := sw.Writes()
	assert.Equal(t, 1, ons)
	assert.Equal(t, 1, offs)
}

func TestDigital(t *testing.T) {
	sw := NewFakeSwitch()
	d := Digital{Switch: sw}

	require.NoError(t, d.SetBrightness(30))
	assert.True(t, sw.IsOn())
	require.NoError(t, d.SetBrightness(0))
	assert.False(t, sw.IsOn())
	assert.ErrorIs(t, d.SetBrightness(120), ErrDutyCycle)

	require.NoError(t, d.On())
	assert.True(t, sw.IsOn())
	require.NoError(t, d.Off())
	assert.False(t, sw.IsOn())
}
