// Package button reads a single digital switch with configurable polarity.
package button

import (
	"fmt"

	"worktimer/gpio"
)

// Config holds configuration for a switch input.
type Config struct {
	Pin        int  `yaml:"pin"`
	ActiveHigh bool `yaml:"active_high"` // false: switch pulls to ground
}

// Enabled reports whether a pin is configured. Pin 0 means no switch.
func (c Config) Enabled() bool {
	return c.Pin != 0
}

// Switch reads a switch as pressed/released regardless of wiring. An
// active-low switch gets the pull-up resistor, an active-high one the
// pull-down.
//
// There is no timed debouncing: a bouncing contact may read as several
// presses. Use a backend with kernel debounce if that matters.
type Switch struct {
	port       gpio.Port
	pin        int
	activeHigh bool
}

// New configures pin as an input and returns a Switch.
func New(port gpio.Port, cfg Config) (*Switch, error) {
	if cfg.Pin < 0 {
		return nil, fmt.Errorf("%w: %d", gpio.ErrInvalidPin, cfg.Pin)
	}
	pull := gpio.PullUp
	if cfg.ActiveHigh {
		pull = gpio.PullDown
	}
	if err := port.Configure(cfg.Pin, gpio.Input, pull); err != nil {
		return nil, fmt.Errorf("configure pin %d: %w", cfg.Pin, err)
	}
	return &Switch{port: port, pin: cfg.Pin, activeHigh: cfg.ActiveHigh}, nil
}

// Read returns true when the switch is closed.
func (s *Switch) Read() (bool, error) {
	level, err := s.port.Read(s.pin)
	if err != nil {
		return false, err
	}
	return level == s.activeHigh, nil
}

// OnPress calls fn on the edge that closes the switch. fn runs in the
// port's notification context.
func (s *Switch) OnPress(fn func()) error {
	return s.port.Watch(s.pin, s.pressEdge(), fn)
}

// Pin returns the configured pin number.
func (s *Switch) Pin() int {
	return s.pin
}

func (s *Switch) pressEdge() gpio.Edge {
	if s.activeHigh {
		return gpio.EdgeRising
	}
	return gpio.EdgeFalling
}
