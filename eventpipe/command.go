package eventpipe

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies a command.
type Kind int

const (
	KindTurn Kind = iota + 1
	KindPin
	KindPress
	KindRelease
)

// Command is one parsed input line.
type Command struct {
	Kind    Kind
	Forward bool // KindTurn: clockwise
	Count   int  // KindTurn: detents
	Pin     int  // KindPin
	High    bool // KindPin
}

// Parse parses a command line.
// Command format:
//
//	turn <cw|ccw> [n]    - turn the encoder n detents (default 1)
//	pin <n> <0|1|low|high> - drive a raw pin level
//	press                - close the push switch
//	release              - open the push switch
func Parse(line string) (Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	switch cmd := strings.ToLower(parts[0]); cmd {
	case "turn", "rotary":
		if len(parts) < 2 {
			return Command{}, fmt.Errorf("turn requires cw or ccw")
		}
		c := Command{Kind: KindTurn, Count: 1}
		switch strings.ToLower(parts[1]) {
		case "cw", "+", "+1", "1":
			c.Forward = true
		case "ccw", "-", "-1":
		default:
			return Command{}, fmt.Errorf("invalid direction: %s", parts[1])
		}
		if len(parts) > 2 {
			n, err := strconv.Atoi(parts[2])
			if err != nil || n < 1 {
				return Command{}, fmt.Errorf("invalid count: %s", parts[2])
			}
			c.Count = n
		}
		return c, nil

	case "pin":
		if len(parts) < 3 {
			return Command{}, fmt.Errorf("pin requires <n> <0|1>")
		}
		pin, err := strconv.Atoi(parts[1])
		if err != nil || pin < 0 {
			return Command{}, fmt.Errorf("invalid pin: %s", parts[1])
		}
		var high bool
		switch strings.ToLower(parts[2]) {
		case "1", "high":
			high = true
		case "0", "low":
		default:
			return Command{}, fmt.Errorf("invalid level: %s", parts[2])
		}
		return Command{Kind: KindPin, Pin: pin, High: high}, nil

	case "press":
		return Command{Kind: KindPress}, nil

	case "release":
		return Command{Kind: KindRelease}, nil

	default:
		return Command{}, fmt.Errorf("unknown command: %s", cmd)
	}
}

// Driver applies levels to simulated input pins. *gpio.Sim implements it.
type Driver interface {
	Drive(pin int, high bool) error
	Level(pin int) bool
}

// Target describes the simulated hardware commands act on.
type Target struct {
	Driver           Driver
	APin, BPin       int
	StepsPerCycle    int
	ButtonPin        int
	ButtonActiveHigh bool

	// Delay between quarter-steps, so a polling sampler sees each one.
	Delay time.Duration
}

// seqLevels is the inverse of the decoder's ring position: (A, B) for 0..3.
var seqLevels = [4][2]bool{
	{false, false},
	{true, false},
	{true, true},
	{false, true},
}

// Apply performs cmd on t.
func Apply(cmd Command, t Target) error {
	switch cmd.Kind {
	case KindTurn:
		return t.turn(cmd.Forward, cmd.Count*t.StepsPerCycle)
	case KindPin:
		return t.Driver.Drive(cmd.Pin, cmd.High)
	case KindPress:
		return t.Driver.Drive(t.ButtonPin, t.ButtonActiveHigh)
	case KindRelease:
		return t.Driver.Drive(t.ButtonPin, !t.ButtonActiveHigh)
	default:
		return fmt.Errorf("unknown command kind %d", cmd.Kind)
	}
}

// turn emits quarter-steps as single-pin Gray-code transitions.
func (t Target) turn(forward bool, steps int) error {
	dir := 1
	if !forward {
		dir = 3
	}
	for i := 0; i < steps; i++ {
		a, b := t.Driver.Level(t.APin), t.Driver.Level(t.BPin)
		seq := 0
		for s, l := range seqLevels {
			if l[0] == a && l[1] == b {
				seq = s
			}
		}
		next := seqLevels[(seq+dir)%4]
		var err error
		if next[0] != a {
			err = t.Driver.Drive(t.APin, next[0])
		} else {
			err = t.Driver.Drive(t.BPin, next[1])
		}
		if err != nil {
			return err
		}
		if t.Delay > 0 {
			time.Sleep(t.Delay)
		}
	}
	return nil
}
