package rotary

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"worktimer/gpio"
)

// Mode selects how the Worker samples the encoder.
type Mode string

const (
	ModeEdge Mode = "edge" // sample from the port's edge notifications
	ModePoll Mode = "poll" // sample from a goroutine every Interval
)

// DefaultInterval is the polling period.
const DefaultInterval = time.Millisecond

// State is the lifecycle position of a Worker: Created, Running, Stopped.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

var (
	ErrAlreadyStarted = errors.New("rotary: worker already started")
	ErrStopped        = errors.New("rotary: worker stopped")
	ErrSamePin        = errors.New("rotary: A and B must be different pins")
)

// Handlers holds optional callbacks for a Worker. Both run synchronously
// in the sampling context (poll goroutine or edge notification) and must
// not block; hand work off to another goroutine if needed.
type Handlers struct {
	// OnCycles receives every non-zero cycle count. When set, each
	// sampling pass drains the accumulator, so ReadSteps and ReadCycles
	// see nothing.
	OnCycles func(cycles int)

	// OnError receives pin read failures. The failed pass is dropped.
	OnError func(err error)
}

// Worker owns a Decoder and Accumulator and feeds them from two input
// pins. ReadSteps and ReadCycles may be called from any one consumer
// goroutine while sampling runs.
type Worker struct {
	port     gpio.Port
	aPin     int
	bPin     int
	mode     Mode
	interval time.Duration
	handlers Handlers

	mu  sync.Mutex
	dec Decoder
	acc *Accumulator

	life   sync.Mutex // serializes Start and Stop
	state  atomic.Int32
	edges  atomic.Bool // edge handlers sample only while set
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWorker configures the encoder pins as inputs and returns a Worker in
// the Created state.
func NewWorker(port gpio.Port, cfg Config, handlers Handlers) (*Worker, error) {
	if cfg.APin < 0 || cfg.BPin < 0 {
		return nil, fmt.Errorf("%w: a=%d b=%d", gpio.ErrInvalidPin, cfg.APin, cfg.BPin)
	}
	if cfg.APin == cfg.BPin {
		return nil, fmt.Errorf("%w: %d", ErrSamePin, cfg.APin)
	}
	acc, err := NewAccumulator(cfg.StepsPerCycle)
	if err != nil {
		return nil, err
	}
	pull, err := cfg.pull()
	if err != nil {
		return nil, err
	}

	w := &Worker{
		port:     port,
		aPin:     cfg.APin,
		bPin:     cfg.BPin,
		mode:     cfg.Mode,
		interval: cfg.Interval,
		handlers: handlers,
		acc:      acc,
		done:     make(chan struct{}),
	}
	if w.mode == "" {
		w.mode = ModeEdge
	}
	if w.interval <= 0 {
		w.interval = DefaultInterval
	}
	switch w.mode {
	case ModeEdge, ModePoll:
	default:
		return nil, fmt.Errorf("rotary: unknown mode %q", w.mode)
	}

	for _, pin := range []int{w.aPin, w.bPin} {
		if err := port.Configure(pin, gpio.Input, pull); err != nil {
			return nil, fmt.Errorf("configure pin %d: %w", pin, err)
		}
	}
	return w, nil
}

// Start seeds the decoder from the current pin levels and begins
// sampling. In edge mode a port without edge support falls back to
// polling. Cancelling ctx stops the worker in either mode.
//
// Calling Start on a running worker returns ErrAlreadyStarted; on a
// stopped one, ErrStopped. Any other error leaves the worker Created so
// Start may be retried.
func (w *Worker) Start(ctx context.Context) error {
	w.life.Lock()
	defer w.life.Unlock()

	switch w.State() {
	case StateRunning:
		return ErrAlreadyStarted
	case StateStopped:
		return ErrStopped
	}

	a, b, err := w.read()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.dec.Reset(a, b)
	w.mu.Unlock()

	if w.mode == ModeEdge {
		// Running must be visible before the first edge arrives.
		w.edges.Store(true)
		w.state.Store(int32(StateRunning))
		err := w.watch()
		if err == nil {
			stop := context.AfterFunc(ctx, w.Stop)
			w.cancel = func() { stop() }
			close(w.done)
			log.Printf("Rotary encoder sampling on edges (A=%d, B=%d)", w.aPin, w.bPin)
			return nil
		}
		// Handlers already registered on A stay with the port; they
		// are muted here.
		w.edges.Store(false)
		if !errors.Is(err, gpio.ErrEdgeUnsupported) {
			w.state.Store(int32(StateCreated))
			return err
		}
		log.Printf("Rotary encoder: edge notification unavailable, polling every %v", w.interval)
		w.mode = ModePoll
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.state.Store(int32(StateRunning))
	go w.run(ctx)
	log.Printf("Rotary encoder polling (A=%d, B=%d, every %v)", w.aPin, w.bPin, w.interval)
	return nil
}

// Stop ends sampling. It does not wait for the poll goroutine; use Done
// for that. Stop on a worker that was never started does nothing.
func (w *Worker) Stop() {
	w.life.Lock()
	defer w.life.Unlock()
	if !w.state.CompareAndSwap(int32(StateRunning), int32(StateStopped)) {
		return
	}
	if w.cancel != nil {
		w.cancel()
	}
}

// Done is closed once no sampling goroutine remains: immediately after an
// edge-mode Start, since edges are sampled in the port's notification
// context, or when the poll goroutine exits.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Mode returns the sampling mode in effect.
func (w *Worker) Mode() Mode {
	w.life.Lock()
	defer w.life.Unlock()
	return w.mode
}

// ReadSteps returns the raw quarter-steps seen since the last read and
// resets the count.
func (w *Worker) ReadSteps() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.acc.TakeSteps()
}

// ReadCycles returns whole detents turned since the last read, carrying
// any partial detent forward. Call it once per consumer tick.
func (w *Worker) ReadCycles() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.acc.Drain()
}

// Sample performs one sampling pass: read both pins, decode, accumulate,
// and report cycles to OnCycles. A read failure aborts the pass.
func (w *Worker) Sample() error {
	a, b, err := w.read()
	if err != nil {
		return err
	}

	cycles := 0
	w.mu.Lock()
	delta := w.dec.Sample(a, b)
	w.acc.Add(delta)
	if w.handlers.OnCycles != nil {
		cycles = w.acc.Drain()
	}
	w.mu.Unlock()

	if cycles != 0 {
		w.handlers.OnCycles(cycles)
	}
	return nil
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.Sample(); err != nil {
			w.reportError(err)
		}
		select {
		case <-ctx.Done():
			// Parent cancellation stops the worker too.
			w.state.Store(int32(StateStopped))
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) watch() error {
	for _, pin := range []int{w.aPin, w.bPin} {
		if err := w.port.Watch(pin, gpio.EdgeBoth, w.onEdge); err != nil {
			return err
		}
	}
	return nil
}

// onEdge is the edge handler. Ports cannot unregister handlers, so
// edges arriving after Stop or after a fallback to polling are ignored
// here.
func (w *Worker) onEdge() {
	if !w.edges.Load() || w.State() != StateRunning {
		return
	}
	if err := w.Sample(); err != nil {
		w.reportError(err)
	}
}

func (w *Worker) read() (bool, bool, error) {
	a, err := w.port.Read(w.aPin)
	if err != nil {
		return false, false, fmt.Errorf("read A pin %d: %w", w.aPin, err)
	}
	b, err := w.port.Read(w.bPin)
	if err != nil {
		return false, false, fmt.Errorf("read B pin %d: %w", w.bPin, err)
	}
	return a, b, nil
}

func (w *Worker) reportError(err error) {
	if w.handlers.OnError != nil {
		w.handlers.OnError(err)
		return
	}
	log.Printf("Rotary sample: %v", err)
}
