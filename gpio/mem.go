//go:build linux

package gpio

import (
	"fmt"
	"sync"

	rpigpio "github.com/warthog618/gpio"
)

type memPin struct {
	pin  *rpigpio.Pin
	dir  Direction
	edge Edge
}

// Mem is a Port on /dev/gpiomem using warthog618/gpio. The underlying
// library maps the GPIO block once per process, so only one Mem should
// be open at a time.
type Mem struct {
	mu   sync.Mutex
	pins map[int]*memPin

	// Unwatch waits for the library's event goroutine, so handlers are
	// looked up under their own lock.
	wmu      sync.RWMutex
	watchers map[int][]simWatch
}

// NewMem maps the GPIO registers.
func NewMem() (*Mem, error) {
	if err := rpigpio.Open(); err != nil {
		return nil, err
	}
	return &Mem{
		pins:     make(map[int]*memPin),
		watchers: make(map[int][]simWatch),
	}, nil
}

// Configure implements Port.Configure.
func (m *Mem) Configure(pin int, dir Direction, pull Pull) error {
	if err := checkPin(pin); err != nil {
		return err
	}
	if pin > maxBCM {
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	mp, ok := m.pins[pin]
	if !ok {
		mp = &memPin{pin: rpigpio.NewPin(pin)}
		m.pins[pin] = mp
	}
	mp.dir = dir
	if dir == Output {
		mp.pin.Output()
	} else {
		mp.pin.Input()
	}
	switch pull {
	case PullUp:
		mp.pin.PullUp()
	case PullDown:
		mp.pin.PullDown()
	default:
		mp.pin.PullNone()
	}
	return nil
}

// Read implements Port.Read.
func (m *Mem) Read(pin int) (bool, error) {
	m.mu.Lock()
	mp, ok := m.pins[pin]
	m.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrNotConfigured, pin)
	}
	return bool(mp.pin.Read()), nil
}

// Watch implements Port.Watch.
func (m *Mem) Watch(pin int, edge Edge, handler func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mp, ok := m.pins[pin]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotConfigured, pin)
	}
	m.wmu.Lock()
	m.watchers[pin] = append(m.watchers[pin], simWatch{edge: edge, handler: handler})
	m.wmu.Unlock()
	want := unionEdge(mp.edge, edge)
	if want == mp.edge {
		return nil
	}
	if mp.edge != EdgeNone {
		mp.pin.Unwatch()
	}
	var e rpigpio.Edge
	switch want {
	case EdgeRising:
		e = rpigpio.EdgeRising
	case EdgeFalling:
		e = rpigpio.EdgeFalling
	default:
		e = rpigpio.EdgeBoth
	}
	if err := mp.pin.Watch(e, func(p *rpigpio.Pin) { m.dispatch(pin, bool(p.Read())) }); err != nil {
		return fmt.Errorf("gpio%d: watch: %w", pin, err)
	}
	mp.edge = want
	return nil
}

// Set implements Writer.
func (m *Mem) Set(pin int, high bool) error {
	m.mu.Lock()
	mp, ok := m.pins[pin]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotConfigured, pin)
	}
	if mp.dir != Output {
		return fmt.Errorf("gpio%d: not an output", pin)
	}
	mp.pin.Write(rpigpio.Level(high))
	return nil
}

// Close implements Port.Close.
func (m *Mem) Close() error {
	m.mu.Lock()
	for pin, mp := range m.pins {
		if mp.edge != EdgeNone {
			mp.pin.Unwatch()
		}
		delete(m.pins, pin)
	}
	m.mu.Unlock()
	m.wmu.Lock()
	m.watchers = make(map[int][]simWatch)
	m.wmu.Unlock()
	return rpigpio.Close()
}

func (m *Mem) dispatch(pin int, level bool) {
	m.wmu.RLock()
	var fire []func()
	for _, w := range m.watchers[pin] {
		if matches(w.edge, level) {
			fire = append(fire, w.handler)
		}
	}
	m.wmu.RUnlock()

	for _, h := range fire {
		h()
	}
}
