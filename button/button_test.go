package button

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktimer/gpio"
)

func TestSwitchPolarity(t *testing.T) {
	tests := []struct {
		name       string
		activeHigh bool
		level      bool
		want       bool
	}{
		{name: "active low, line high", activeHigh: false, level: true, want: false},
		{name: "active low, line low", activeHigh: false, level: false, want: true},
		{name: "active high, line high", activeHigh: true, level: true, want: true},
		{name: "active high, line low", activeHigh: true, level: false, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := gpio.NewSim()
			sw, err := New(sim, Config{Pin: 27, ActiveHigh: tt.activeHigh})
			require.NoError(t, err)

			require.NoError(t, sim.Drive(27, tt.level))
			got, err := sw.Read()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSwitchIdleIsReleased(t *testing.T) {
	for _, activeHigh := range []bool{false, true} {
		sim := gpio.NewSim()
		sw, err := New(sim, Config{Pin: 27, ActiveHigh: activeHigh})
		require.NoError(t, err)
		got, err := sw.Read()
		require.NoError(t, err)
		assert.False(t, got, "active high %v", activeHigh)
	}
}

func TestSwitchOnPress(t *testing.T) {
	t.Run("active low fires on falling edge", func(t *testing.T) {
		sim := gpio.NewSim()
		sw, err := New(sim, Config{Pin: 27})
		require.NoError(t, err)

		presses := 0
		require.NoError(t, sw.OnPress(func() { presses++ }))
		require.NoError(t, sim.Drive(27, false))
		require.NoError(t, sim.Drive(27, true))
		assert.Equal(t, 1, presses)
	})
	t.Run("active high fires on rising edge", func(t *testing.T) {
		sim := gpio.NewSim()
		sw, err := New(sim, Config{Pin: 22, ActiveHigh: true})
		require.NoError(t, err)

		presses := 0
		require.NoError(t, sw.OnPress(func() { presses++ }))
		require.NoError(t, sim.Drive(22, true))
		require.NoError(t, sim.Drive(22, false))
		assert.Equal(t, 1, presses)
		assert.Equal(t, 22, sw.Pin())
	})
}

func TestNewRejectsInvalidPin(t *testing.T) {
	_, err := New(gpio.NewSim(), Config{Pin: -3})
	assert.ErrorIs(t, err, gpio.ErrInvalidPin)
}
