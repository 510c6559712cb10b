// Package indicator shows timer and connection state on LEDs.
package indicator

import (
	"fmt"

	"worktimer/gpio"
)

// Indicator is the interface for status indicator implementations (LEDs, neopixels, etc).
type Indicator interface {
	// Idle shows that no job is being timed.
	Idle()

	// Timing shows that the work timer is running.
	Timing()

	// ConnectionLost shows that the MQTT broker is unreachable. The
	// next Idle or Timing clears it.
	ConnectionLost()

	// Shutdown sets the indicator to shutdown state.
	Shutdown()

	// Release releases any hardware resources.
	Release() error
}

// Config holds configuration for indicator implementations.
type Config struct {
	// "govattu" drives LEDs through the BCM registers directly, "port"
	// through the application's GPIO port.
	Driver string `yaml:"driver"`

	// GPIO LED pins (nil = not configured)
	TimingPin *int `yaml:"timing_pin"`
	LinkPin   *int `yaml:"link_pin"`

	// Neopixel pipe path (empty = not configured)
	NeopixelPipe string `yaml:"neopixel_pipe"`
}

// New creates an Indicator based on the provided configuration.
// Returns a Multi indicator if both LEDs and Neopixel are configured.
func New(cfg Config, port gpio.Port) (Indicator, error) {
	var indicators []Indicator

	if cfg.TimingPin != nil || cfg.LinkPin != nil {
		switch cfg.Driver {
		case "govattu", "":
			led, err := NewGPIO(cfg.TimingPin, cfg.LinkPin)
			if err != nil {
				return nil, err
			}
			indicators = append(indicators, led)
		case "port":
			w, ok := port.(gpio.Writer)
			if !ok {
				return nil, fmt.Errorf("indicator: gpio port cannot drive outputs")
			}
			led, err := NewPin(port, w, cfg.TimingPin, cfg.LinkPin)
			if err != nil {
				return nil, err
			}
			indicators = append(indicators, led)
		default:
			return nil, fmt.Errorf("indicator: unknown driver %q", cfg.Driver)
		}
	}

	if cfg.NeopixelPipe != "" {
		neo, err := NewNeopixel(cfg.NeopixelPipe)
		if err != nil {
			return nil, err
		}
		indicators = append(indicators, neo)
	}

	if len(indicators) == 0 {
		return &Noop{}, nil
	}
	if len(indicators) == 1 {
		return indicators[0], nil
	}
	return &Multi{indicators: indicators}, nil
}
