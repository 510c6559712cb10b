package rotary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccumulatorRejectsNonPositive(t *testing.T) {
	for _, n := range []int{0, -1, -4} {
		_, err := NewAccumulator(n)
		assert.ErrorIs(t, err, ErrStepsPerCycle, "steps per cycle %d", n)
	}
}

func TestAccumulatorDrainOneStepAtATime(t *testing.T) {
	acc, err := NewAccumulator(4)
	require.NoError(t, err)

	var got []int
	for i := 0; i < 4; i++ {
		acc.Add(1)
		got = append(got, acc.Drain())
	}
	assert.Equal(t, []int{0, 0, 0, 1}, got)
	assert.Equal(t, 0, acc.Remainder())
}

func TestAccumulatorFloorsNegativeTotals(t *testing.T) {
	tests := []struct {
		steps         int
		wantCycles    int
		wantRemainder int
	}{
		{steps: -4, wantCycles: -1, wantRemainder: 0},
		{steps: -1, wantCycles: -1, wantRemainder: 3},
		{steps: -5, wantCycles: -2, wantRemainder: 3},
		{steps: 5, wantCycles: 1, wantRemainder: 1},
		{steps: 3, wantCycles: 0, wantRemainder: 3},
		{steps: 0, wantCycles: 0, wantRemainder: 0},
	}
	for _, tt := range tests {
		acc, err := NewAccumulator(4)
		require.NoError(t, err)
		acc.Add(tt.steps)
		assert.Equal(t, tt.wantCycles, acc.Drain(), "steps %d", tt.steps)
		assert.Equal(t, tt.wantRemainder, acc.Remainder(), "steps %d", tt.steps)
	}
}

func TestAccumulatorCarriesRemainder(t *testing.T) {
	acc, err := NewAccumulator(4)
	require.NoError(t, err)

	acc.Add(-1)
	assert.Equal(t, -1, acc.Drain())
	// The 3 carried steps plus one more complete a forward detent.
	acc.Add(1)
	assert.Equal(t, 1, acc.Drain())
	assert.Equal(t, 0, acc.Remainder())
}

func TestAccumulatorTakeSteps(t *testing.T) {
	acc, err := NewAccumulator(2)
	require.NoError(t, err)

	acc.Add(3)
	acc.Add(-1)
	assert.Equal(t, 2, acc.TakeSteps())
	assert.Equal(t, 0, acc.TakeSteps())
	assert.Equal(t, 0, acc.Drain())
	assert.Equal(t, 2, acc.StepsPerCycle())
}
