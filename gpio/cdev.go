//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

type cdevLine struct {
	line *gpiocdev.Line
	dir  Direction
	pull Pull
	edge Edge
}

// Cdev is a Port on the Linux GPIO character device.
type Cdev struct {
	mu       sync.Mutex
	chip     string
	debounce time.Duration
	lines    map[int]*cdevLine

	// Handlers are kept apart from lines so event delivery never waits
	// on mu, which is held while a line is closed and re-requested.
	wmu      sync.RWMutex
	watchers map[int][]simWatch
}

// NewCdev opens lines on chip (default gpiochip0). debounceUs > 0 enables
// kernel debouncing on watched lines.
func NewCdev(chip string, debounceUs int) (*Cdev, error) {
	if chip == "" {
		chip = "gpiochip0"
	}
	return &Cdev{
		chip:     chip,
		debounce: time.Duration(debounceUs) * time.Microsecond,
		lines:    make(map[int]*cdevLine),
		watchers: make(map[int][]simWatch),
	}, nil
}

// Configure implements Port.Configure.
func (c *Cdev) Configure(pin int, dir Direction, pull Pull) error {
	if err := checkPin(pin); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cl, ok := c.lines[pin]
	if !ok {
		cl = &cdevLine{}
		c.lines[pin] = cl
	}
	cl.dir = dir
	cl.pull = pull
	return c.request(pin, cl)
}

// Read implements Port.Read.
func (c *Cdev) Read(pin int) (bool, error) {
	c.mu.Lock()
	cl, ok := c.lines[pin]
	c.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrNotConfigured, pin)
	}
	v, err := cl.line.Value()
	if err != nil {
		return false, fmt.Errorf("gpio%d: read: %w", pin, err)
	}
	return v != 0, nil
}

// Watch implements Port.Watch. The line is re-requested with edge
// detection covering every registered handler.
func (c *Cdev) Watch(pin int, edge Edge, handler func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl, ok := c.lines[pin]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotConfigured, pin)
	}
	c.wmu.Lock()
	c.watchers[pin] = append(c.watchers[pin], simWatch{edge: edge, handler: handler})
	c.wmu.Unlock()
	cl.edge = unionEdge(cl.edge, edge)
	return c.request(pin, cl)
}

// Set implements Writer.
func (c *Cdev) Set(pin int, high bool) error {
	c.mu.Lock()
	cl, ok := c.lines[pin]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotConfigured, pin)
	}
	if cl.dir != Output {
		return fmt.Errorf("gpio%d: not an output", pin)
	}
	v := 0
	if high {
		v = 1
	}
	return cl.line.SetValue(v)
}

// Close implements Port.Close. Lines are closed after mu is released:
// closing a line waits for its event goroutine, whose handlers may be
// blocked in Read.
func (c *Cdev) Close() error {
	c.mu.Lock()
	lines := make([]*gpiocdev.Line, 0, len(c.lines))
	for pin, cl := range c.lines {
		if cl.line != nil {
			lines = append(lines, cl.line)
		}
		delete(c.lines, pin)
	}
	c.mu.Unlock()

	c.wmu.Lock()
	c.watchers = make(map[int][]simWatch)
	c.wmu.Unlock()

	var lastErr error
	for _, l := range lines {
		if err := l.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// request must be called with c.mu held.
func (c *Cdev) request(pin int, cl *cdevLine) error {
	if cl.line != nil {
		cl.line.Close()
		cl.line = nil
	}

	var opts []gpiocdev.LineReqOption
	if cl.dir == Output {
		opts = append(opts, gpiocdev.AsOutput(0))
	} else {
		opts = append(opts, gpiocdev.AsInput)
	}
	switch cl.pull {
	case PullUp:
		opts = append(opts, gpiocdev.WithPullUp)
	case PullDown:
		opts = append(opts, gpiocdev.WithPullDown)
	default:
		opts = append(opts, gpiocdev.WithBiasDisabled)
	}
	if cl.edge != EdgeNone {
		switch cl.edge {
		case EdgeRising:
			opts = append(opts, gpiocdev.WithRisingEdge)
		case EdgeFalling:
			opts = append(opts, gpiocdev.WithFallingEdge)
		default:
			opts = append(opts, gpiocdev.WithBothEdges)
		}
		if c.debounce > 0 {
			opts = append(opts, gpiocdev.WithDebounce(c.debounce))
		}
		opts = append(opts, gpiocdev.WithEventHandler(c.handleEvent))
	}

	l, err := gpiocdev.RequestLine(c.chip, pin, opts...)
	if err != nil {
		return fmt.Errorf("request %s line %d: %w", c.chip, pin, err)
	}
	cl.line = l
	return nil
}

func (c *Cdev) handleEvent(evt gpiocdev.LineEvent) {
	var level bool
	switch evt.Type {
	case gpiocdev.LineEventRisingEdge:
		level = true
	case gpiocdev.LineEventFallingEdge:
		level = false
	default:
		return
	}

	c.wmu.RLock()
	var fire []func()
	for _, w := range c.watchers[evt.Offset] {
		if matches(w.edge, level) {
			fire = append(fire, w.handler)
		}
	}
	c.wmu.RUnlock()

	for _, h := range fire {
		h()
	}
}
