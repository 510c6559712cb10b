package rotary

import (
	"errors"
	"fmt"
)

// ErrStepsPerCycle is returned for a non-positive steps-per-cycle setting.
var ErrStepsPerCycle = errors.New("rotary: steps per cycle must be positive")

// DefaultStepsPerCycle is the number of quarter-steps per detent on a
// typical mechanical encoder.
const DefaultStepsPerCycle = 4

// Accumulator collects raw steps and converts them to whole detents
// (cycles), carrying the leftover between drains.
//
// Division floors toward negative infinity, so the remainder is always in
// [0, stepsPerCycle) even when turning backwards: draining -1 step reports
// -1 cycle and leaves a remainder of stepsPerCycle-1, while +1 step reports
// nothing until the detent completes.
type Accumulator struct {
	perCycle  int
	pending   int
	remainder int
}

// NewAccumulator returns an Accumulator for stepsPerCycle quarter-steps per detent.
func NewAccumulator(stepsPerCycle int) (*Accumulator, error) {
	if stepsPerCycle <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrStepsPerCycle, stepsPerCycle)
	}
	return &Accumulator{perCycle: stepsPerCycle}, nil
}

// Add records n raw steps.
func (a *Accumulator) Add(n int) {
	a.pending += n
}

// TakeSteps returns the raw steps added since the last TakeSteps or
// Drain and clears them.
func (a *Accumulator) TakeSteps() int {
	n := a.pending
	a.pending = 0
	return n
}

// Drain folds pending steps into the remainder and returns the number of
// whole cycles it now holds.
func (a *Accumulator) Drain() int {
	a.remainder += a.TakeSteps()
	cycles := floorDiv(a.remainder, a.perCycle)
	a.remainder -= cycles * a.perCycle
	return cycles
}

// Remainder returns the partial-detent steps carried to the next Drain.
func (a *Accumulator) Remainder() int {
	return a.remainder
}

// StepsPerCycle returns the configured detent size.
func (a *Accumulator) StepsPerCycle() int {
	return a.perCycle
}

func floorDiv(n, d int) int {
	q := n / d
	if (n%d != 0) && ((n < 0) != (d < 0)) {
		q--
	}
	return q
}
