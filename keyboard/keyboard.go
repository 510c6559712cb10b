// Package keyboard reads arrow, Enter and Escape keys from an input
// device as a second way to drive the knob and its push switch.
package keyboard

import (
	"context"
	"fmt"
	"log"

	"github.com/kenshaw/evdev"
)

// Config holds configuration for the keyboard input.
type Config struct {
	Device string `yaml:"device"` // e.g. /dev/input/event0; empty disables
}

// Action is what a key does.
type Action int

const (
	ActionNone   Action = iota
	ActionUp            // one detent forward
	ActionDown          // one detent back
	ActionEnter         // same as pressing the knob
	ActionCancel        // stop the timer if it is running
)

func (a Action) String() string {
	switch a {
	case ActionUp:
		return "up"
	case ActionDown:
		return "down"
	case ActionEnter:
		return "enter"
	case ActionCancel:
		return "cancel"
	default:
		return "none"
	}
}

// ActionFor maps a key to its action.
func ActionFor(key evdev.KeyType) Action {
	switch key {
	case evdev.KeyUp:
		return ActionUp
	case evdev.KeyDown:
		return ActionDown
	case evdev.KeyEnter:
		return ActionEnter
	case evdev.KeyEscape:
		return ActionCancel
	default:
		return ActionNone
	}
}

// Keyboard delivers key-down actions from an evdev device.
type Keyboard struct {
	device   *evdev.Evdev
	onAction func(Action)
}

// New opens the device. Returns nil if no device is configured.
func New(cfg Config, onAction func(Action)) (*Keyboard, error) {
	if cfg.Device == "" {
		return nil, nil
	}
	dev, err := evdev.OpenFile(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open evdev %s: %w", cfg.Device, err)
	}
	log.Printf("Opened keyboard device: %s", dev.Name())
	return &Keyboard{device: dev, onAction: onAction}, nil
}

// Run delivers actions until ctx is done or the device closes. Run it
// as a goroutine.
func (k *Keyboard) Run(ctx context.Context) {
	ch := k.device.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-ch:
			if event == nil {
				log.Printf("Keyboard device closed")
				return
			}
			key, ok := event.Type.(evdev.KeyType)
			if !ok || event.Value != 1 {
				continue
			}
			if a := ActionFor(key); a != ActionNone {
				k.onAction(a)
			}
		}
	}
}

// Close releases the device.
func (k *Keyboard) Close() error {
	if k.device == nil {
		return nil
	}
	return k.device.Close()
}
