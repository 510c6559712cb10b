package indicator

import (
	"fmt"

	"github.com/hjkoskel/govattu"
)

// GPIO implements Indicator with discrete LEDs driven through the BCM
// registers. The timing LED is lit while the timer runs; the link LED is
// lit while the broker connection is up.
type GPIO struct {
	hw        govattu.Vattu
	timingPin *uint8
	linkPin   *uint8
}

// NewGPIO creates a new GPIO-based indicator.
func NewGPIO(timingPin, linkPin *int) (*GPIO, error) {
	tp, err := bcmPin(timingPin)
	if err != nil {
		return nil, err
	}
	lp, err := bcmPin(linkPin)
	if err != nil {
		return nil, err
	}

	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	g := &GPIO{hw: hw, timingPin: tp, linkPin: lp}
	for _, p := range []*uint8{tp, lp} {
		if p != nil {
			hw.PinMode(*p, govattu.ALToutput)
			hw.PinClear(*p)
		}
	}
	return g, nil
}

// Idle implements Indicator.Idle.
func (g *GPIO) Idle() {
	g.set(g.timingPin, false)
	g.set(g.linkPin, true)
}

// Timing implements Indicator.Timing.
func (g *GPIO) Timing() {
	g.set(g.timingPin, true)
	g.set(g.linkPin, true)
}

// ConnectionLost implements Indicator.ConnectionLost.
func (g *GPIO) ConnectionLost() {
	g.set(g.linkPin, false)
}

// Shutdown implements Indicator.Shutdown.
func (g *GPIO) Shutdown() {
	g.set(g.timingPin, false)
	g.set(g.linkPin, false)
}

// Release implements Indicator.Release.
func (g *GPIO) Release() error {
	g.Shutdown()
	return g.hw.Close()
}

func (g *GPIO) set(pin *uint8, on bool) {
	if pin == nil {
		return
	}
	if on {
		g.hw.PinSet(*pin)
	} else {
		g.hw.PinClear(*pin)
	}
}

func bcmPin(p *int) (*uint8, error) {
	if p == nil {
		return nil, nil
	}
	if *p < 0 || *p > 53 {
		return nil, fmt.Errorf("indicator: invalid pin %d", *p)
	}
	v := uint8(*p)
	return &v, nil
}
