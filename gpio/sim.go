package gpio

import (
	"fmt"
	"sync"
)

type simPin struct {
	dir      Direction
	pull     Pull
	level    bool
	watchers []simWatch
	readErr  error
}

type simWatch struct {
	edge    Edge
	handler func()
}

// Sim is an in-memory Port. External signals are applied with Drive,
// which fires matching Watch handlers synchronously on the calling
// goroutine, the way an edge interrupt would.
type Sim struct {
	mu     sync.Mutex
	pins   map[int]*simPin
	closed bool
}

// NewSim returns an empty simulated port.
func NewSim() *Sim {
	return &Sim{pins: make(map[int]*simPin)}
}

// Configure implements Port.Configure. A pull resistor sets the idle
// level of an undriven input.
func (s *Sim) Configure(pin int, dir Direction, pull Pull) error {
	if err := checkPin(pin); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("gpio: sim port closed")
	}
	p, ok := s.pins[pin]
	if !ok {
		p = &simPin{level: pull == PullUp}
		s.pins[pin] = p
	}
	p.dir = dir
	p.pull = pull
	return nil
}

// Read implements Port.Read.
func (s *Sim) Read(pin int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.pin(pin)
	if err != nil {
		return false, err
	}
	if p.readErr != nil {
		return false, p.readErr
	}
	return p.level, nil
}

// Watch implements Port.Watch.
func (s *Sim) Watch(pin int, edge Edge, handler func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.pin(pin)
	if err != nil {
		return err
	}
	p.watchers = append(p.watchers, simWatch{edge: edge, handler: handler})
	return nil
}

// Set implements Writer for pins configured as outputs.
func (s *Sim) Set(pin int, high bool) error {
	s.mu.Lock()
	p, err := s.pin(pin)
	if err == nil && p.dir != Output {
		err = fmt.Errorf("gpio%d: not an output", pin)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.change(pin, high)
	return nil
}

// Drive applies an external level to an input pin.
func (s *Sim) Drive(pin int, high bool) error {
	s.mu.Lock()
	_, err := s.pin(pin)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.change(pin, high)
	return nil
}

// DrivePair applies levels to two pins, firing handlers after each change.
func (s *Sim) DrivePair(a int, la bool, b int, lb bool) error {
	if err := s.Drive(a, la); err != nil {
		return err
	}
	return s.Drive(b, lb)
}

// Level reports the last level of pin regardless of direction.
func (s *Sim) Level(pin int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pins[pin]; ok {
		return p.level
	}
	return false
}

// FailReads makes every Read of pin return err until cleared with nil.
func (s *Sim) FailReads(pin int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pins[pin]; ok {
		p.readErr = err
	}
}

// Close implements Port.Close.
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, p := range s.pins {
		p.watchers = nil
	}
	return nil
}

// pin must be called with s.mu held.
func (s *Sim) pin(pin int) (*simPin, error) {
	if err := checkPin(pin); err != nil {
		return nil, err
	}
	p, ok := s.pins[pin]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotConfigured, pin)
	}
	return p, nil
}

func (s *Sim) change(pin int, high bool) {
	s.mu.Lock()
	p := s.pins[pin]
	if p.level == high {
		s.mu.Unlock()
		return
	}
	p.level = high
	var fire []func()
	for _, w := range p.watchers {
		if matches(w.edge, high) {
			fire = append(fire, w.handler)
		}
	}
	s.mu.Unlock()

	for _, h := range fire {
		h()
	}
}
