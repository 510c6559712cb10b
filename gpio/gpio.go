// Package gpio is the narrow pin capability the encoder and switch code
// depend on. Hardware backends live behind build tags; Sim works everywhere.
package gpio

import (
	"errors"
	"fmt"
)

// Direction of a pin.
type Direction int

const (
	Input Direction = iota
	Output
)

// Pull resistor setting.
type Pull int

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Edge selects which transitions a Watch handler fires on.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

func (e Edge) String() string {
	switch e {
	case EdgeNone:
		return "none"
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return fmt.Sprintf("edge(%d)", int(e))
	}
}

var (
	ErrInvalidPin      = errors.New("gpio: invalid pin")
	ErrNotConfigured   = errors.New("gpio: pin not configured")
	ErrEdgeUnsupported = errors.New("gpio: edge notification not supported by backend")
	ErrNotSupported    = errors.New("gpio: backend not supported on this platform")
)

// Port is the capability surface consumed by rotary and button.
type Port interface {
	// Configure sets direction and pull resistor for pin.
	Configure(pin int, dir Direction, pull Pull) error

	// Read returns the current level of pin (true = high).
	Read(pin int) (bool, error)

	// Watch registers handler to be called on the given edge of pin.
	// The handler runs in the backend's notification context and must
	// not block. Backends without edge support return ErrEdgeUnsupported.
	Watch(pin int, edge Edge, handler func()) error

	// Close releases all pins held by the port.
	Close() error
}

// Writer is implemented by ports that can drive output pins.
type Writer interface {
	Set(pin int, high bool) error
}

// Config selects and configures a backend.
type Config struct {
	Type     string `yaml:"type"`     // "cdev", "gpiomem", "rpio", "sim"
	Chip     string `yaml:"chip"`     // cdev only, default gpiochip0
	Debounce int    `yaml:"debounce"` // cdev only, kernel debounce in microseconds
}

// New creates a Port based on the provided configuration.
func New(cfg Config) (Port, error) {
	switch cfg.Type {
	case "cdev", "":
		p, err := NewCdev(cfg.Chip, cfg.Debounce)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "gpiomem":
		p, err := NewMem()
		if err != nil {
			return nil, fmt.Errorf("open gpiomem: %w", err)
		}
		return p, nil
	case "rpio":
		p, err := NewRpio()
		if err != nil {
			return nil, fmt.Errorf("open rpio: %w", err)
		}
		return p, nil
	case "sim":
		return NewSim(), nil
	default:
		return nil, fmt.Errorf("gpio: unknown backend %q", cfg.Type)
	}
}

// maxBCM is the highest pin number on the memory-mapped backends.
const maxBCM = 53

func checkPin(pin int) error {
	if pin < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	return nil
}

// matches reports whether a transition to level fires a handler watching edge.
func matches(edge Edge, level bool) bool {
	switch edge {
	case EdgeBoth:
		return true
	case EdgeRising:
		return level
	case EdgeFalling:
		return !level
	default:
		return false
	}
}

// unionEdge widens a pin's edge detection to cover both a and b.
func unionEdge(a, b Edge) Edge {
	switch {
	case a == EdgeNone:
		return b
	case b == EdgeNone, a == b:
		return a
	default:
		return EdgeBoth
	}
}
