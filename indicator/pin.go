package indicator

import (
	"fmt"
	"log"

	"worktimer/gpio"
)

// Pin implements Indicator with LEDs on output pins of a gpio.Port.
type Pin struct {
	w         gpio.Writer
	timingPin *int
	linkPin   *int
}

// NewPin configures the given pins as outputs on port and drives them
// through w, normally the same port.
func NewPin(port gpio.Port, w gpio.Writer, timingPin, linkPin *int) (*Pin, error) {
	for _, p := range []*int{timingPin, linkPin} {
		if p == nil {
			continue
		}
		if err := port.Configure(*p, gpio.Output, gpio.PullNone); err != nil {
			return nil, fmt.Errorf("configure led pin %d: %w", *p, err)
		}
	}
	return &Pin{w: w, timingPin: timingPin, linkPin: linkPin}, nil
}

// Idle implements Indicator.Idle.
func (p *Pin) Idle() {
	p.set(p.timingPin, false)
	p.set(p.linkPin, true)
}

// Timing implements Indicator.Timing.
func (p *Pin) Timing() {
	p.set(p.timingPin, true)
	p.set(p.linkPin, true)
}

// ConnectionLost implements Indicator.ConnectionLost.
func (p *Pin) ConnectionLost() {
	p.set(p.linkPin, false)
}

// Shutdown implements Indicator.Shutdown.
func (p *Pin) Shutdown() {
	p.set(p.timingPin, false)
	p.set(p.linkPin, false)
}

// Release implements Indicator.Release. The port is released by its owner.
func (p *Pin) Release() error {
	p.Shutdown()
	return nil
}

func (p *Pin) set(pin *int, on bool) {
	if pin == nil {
		return
	}
	if err := p.w.Set(*pin, on); err != nil {
		log.Printf("LED pin %d: %v", *pin, err)
	}
}
