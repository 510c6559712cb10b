//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

// Rpio is a Port on /dev/gpiomem using go-rpio. It has no edge
// callbacks, so encoders on this backend run in polling mode.
type Rpio struct {
	mu   sync.Mutex
	pins map[int]Direction
}

// NewRpio maps the GPIO registers.
func NewRpio() (*Rpio, error) {
	if err := rpio.Open(); err != nil {
		return nil, err
	}
	return &Rpio{pins: make(map[int]Direction)}, nil
}

// Configure implements Port.Configure.
func (r *Rpio) Configure(pin int, dir Direction, pull Pull) error {
	if err := checkPin(pin); err != nil {
		return err
	}
	if pin > maxBCM {
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	p := rpio.Pin(pin)
	if dir == Output {
		p.Output()
	} else {
		p.Input()
	}
	switch pull {
	case PullUp:
		p.PullUp()
	case PullDown:
		p.PullDown()
	default:
		p.PullOff()
	}
	r.mu.Lock()
	r.pins[pin] = dir
	r.mu.Unlock()
	return nil
}

// Read implements Port.Read.
func (r *Rpio) Read(pin int) (bool, error) {
	r.mu.Lock()
	_, ok := r.pins[pin]
	r.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrNotConfigured, pin)
	}
	return rpio.Pin(pin).Read() == rpio.High, nil
}

// Watch implements Port.Watch.
func (r *Rpio) Watch(pin int, edge Edge, handler func()) error {
	return ErrEdgeUnsupported
}

// Set implements Writer.
func (r *Rpio) Set(pin int, high bool) error {
	r.mu.Lock()
	dir, ok := r.pins[pin]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotConfigured, pin)
	}
	if dir != Output {
		return fmt.Errorf("gpio%d: not an output", pin)
	}
	if high {
		rpio.Pin(pin).High()
	} else {
		rpio.Pin(pin).Low()
	}
	return nil
}

// Close implements Port.Close.
func (r *Rpio) Close() error {
	return rpio.Close()
}
