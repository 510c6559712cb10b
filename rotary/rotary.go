// Package rotary decodes a quadrature rotary encoder with an optional
// push switch.
package rotary

import (
	"errors"
	"fmt"
	"log"
	"time"

	"worktimer/button"
	"worktimer/gpio"
)

// Config holds configuration for a rotary encoder.
type Config struct {
	APin          int           `yaml:"a_pin"`
	BPin          int           `yaml:"b_pin"`
	StepsPerCycle int           `yaml:"steps_per_cycle"`
	Mode          Mode          `yaml:"mode"`     // "edge" (default) or "poll"
	Interval      time.Duration `yaml:"interval"` // poll period, default 1ms
	Pull          string        `yaml:"pull"`     // "up" (default), "down", "none"

	Button button.Config `yaml:"button"`
}

// Enabled reports whether any encoder pins are configured.
func (c Config) Enabled() bool {
	return c.APin != 0 || c.BPin != 0
}

// WithDefaults fills unset fields. A negative StepsPerCycle is left alone
// so construction rejects it.
func (c Config) WithDefaults() Config {
	if c.StepsPerCycle == 0 {
		c.StepsPerCycle = DefaultStepsPerCycle
	}
	if c.Mode == "" {
		c.Mode = ModeEdge
	}
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	if c.Pull == "" {
		c.Pull = "up"
	}
	return c
}

func (c Config) pull() (gpio.Pull, error) {
	switch c.Pull {
	case "up", "":
		return gpio.PullUp, nil
	case "down":
		return gpio.PullDown, nil
	case "none":
		return gpio.PullNone, nil
	default:
		return 0, fmt.Errorf("rotary: unknown pull %q", c.Pull)
	}
}

// Rotary is an encoder plus its optional push switch.
type Rotary struct {
	*Worker
	button *button.Switch

	// Set when the port cannot watch the switch; PollPress then detects
	// presses from successive reads.
	onPress     func()
	pollPress   bool
	lastPressed bool
}

// New creates a rotary encoder on port. Returns nil if cfg has no encoder
// pins, in which case the encoder is disabled. onPress may be nil.
func New(port gpio.Port, cfg Config, handlers Handlers, onPress func()) (*Rotary, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	cfg = cfg.WithDefaults()

	w, err := NewWorker(port, cfg, handlers)
	if err != nil {
		return nil, err
	}
	r := &Rotary{Worker: w, onPress: onPress}

	if cfg.Button.Enabled() {
		r.button, err = button.New(port, cfg.Button)
		if err != nil {
			return nil, fmt.Errorf("rotary button: %w", err)
		}
		if onPress != nil {
			err := r.button.OnPress(onPress)
			switch {
			case errors.Is(err, gpio.ErrEdgeUnsupported):
				log.Printf("Rotary button: edge notification unavailable, polling")
				r.pollPress = true
			case err != nil:
				return nil, fmt.Errorf("rotary button: %w", err)
			}
		}
	}
	return r, nil
}

// PollPress reads the switch and calls onPress on an open-to-closed
// transition. It only does anything when the port could not watch the
// switch; call it from the consumer loop.
func (r *Rotary) PollPress() error {
	if !r.pollPress {
		return nil
	}
	pressed, err := r.button.Read()
	if err != nil {
		return err
	}
	if pressed && !r.lastPressed {
		r.onPress()
	}
	r.lastPressed = pressed
	return nil
}

// Pressed reports whether the push switch is closed. Always false when
// no switch is configured.
func (r *Rotary) Pressed() (bool, error) {
	if r.button == nil {
		return false, nil
	}
	return r.button.Read()
}

// Release stops sampling. The port itself is owned by the caller.
func (r *Rotary) Release() error {
	r.Worker.Stop()
	return nil
}
