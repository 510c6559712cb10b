package rotary

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktimer/button"
	"worktimer/gpio"
)

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{APin: 5, BPin: 6}.WithDefaults()
	assert.Equal(t, DefaultStepsPerCycle, cfg.StepsPerCycle)
	assert.Equal(t, ModeEdge, cfg.Mode)
	assert.Equal(t, DefaultInterval, cfg.Interval)
	assert.Equal(t, "up", cfg.Pull)

	cfg = Config{APin: 5, BPin: 6, StepsPerCycle: -2}.WithDefaults()
	assert.Equal(t, -2, cfg.StepsPerCycle)
}

func TestNewDisabled(t *testing.T) {
	r, err := New(gpio.NewSim(), Config{}, Handlers{}, nil)
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestNewRejectsBadStepsPerCycle(t *testing.T) {
	_, err := New(gpio.NewSim(), Config{APin: 5, BPin: 6, StepsPerCycle: -1}, Handlers{}, nil)
	assert.ErrorIs(t, err, ErrStepsPerCycle)
}

func TestRotaryButton(t *testing.T) {
	sim := gpio.NewSim()
	presses := 0
	r, err := New(sim, Config{
		APin:   pinA,
		BPin:   pinB,
		Button: button.Config{Pin: 27},
	}, Handlers{}, func() { presses++ })
	require.NoError(t, err)
	require.NoError(t, r.Start(context.Background()))
	defer r.Release()

	pressed, err := r.Pressed()
	require.NoError(t, err)
	assert.False(t, pressed)

	require.NoError(t, sim.Drive(27, false))
	pressed, err = r.Pressed()
	require.NoError(t, err)
	assert.True(t, pressed)
	assert.Equal(t, 1, presses)

	require.NoError(t, sim.Drive(27, true))
	assert.Equal(t, 1, presses)

	// Watched switches need no polling.
	require.NoError(t, r.PollPress())
	assert.Equal(t, 1, presses)

	for i := 0; i < 4; i++ {
		step(t, sim, false)
	}
	assert.Equal(t, -1, r.ReadCycles())
}

func TestRotaryPollPress(t *testing.T) {
	port := &noEdgePort{Sim: gpio.NewSim()}
	presses := 0
	r, err := New(port, Config{
		APin:     pinA,
		BPin:     pinB,
		Interval: time.Millisecond,
		Button:   button.Config{Pin: 27},
	}, Handlers{}, func() { presses++ })
	require.NoError(t, err)
	require.NoError(t, r.Start(context.Background()))
	defer r.Release()

	require.NoError(t, r.PollPress())
	assert.Equal(t, 0, presses)

	require.NoError(t, port.Drive(27, false))
	require.NoError(t, r.PollPress())
	require.NoError(t, r.PollPress())
	assert.Equal(t, 1, presses)

	require.NoError(t, port.Drive(27, true))
	require.NoError(t, r.PollPress())
	require.NoError(t, port.Drive(27, false))
	require.NoError(t, r.PollPress())
	assert.Equal(t, 2, presses)
}

func TestRotaryPressedWithoutButton(t *testing.T) {
	r, err := New(gpio.NewSim(), Config{APin: pinA, BPin: pinB}, Handlers{}, nil)
	require.NoError(t, err)
	pressed, err := r.Pressed()
	require.NoError(t, err)
	assert.False(t, pressed)
}
