package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v2"

	"worktimer/eventpipe"
	"worktimer/gpio"
	"worktimer/indicator"
	"worktimer/keyboard"
	"worktimer/mqtt"
	"worktimer/rotary"
)

// Config is the main configuration structure for worktimer.
type Config struct {
	// GPIO backend selection
	GPIO gpio.Config `yaml:"gpio"`

	// Rotary encoder and its push switch
	Rotary rotary.Config `yaml:"rotary"`

	// Status LEDs
	Indicator indicator.Config `yaml:"indicator"`

	// MQTT connection settings
	MQTT mqtt.Config `yaml:"mqtt"`

	// Simulated input commands (sim backend only)
	EventPipe eventpipe.Config `yaml:"event_pipe"`

	// Arrow/Enter/Escape keys as a second input path
	Keyboard keyboard.Config `yaml:"keyboard"`

	// General settings
	ClientID string        `yaml:"client_id"`
	Tick     time.Duration `yaml:"tick"`      // consumer loop period
	PingSecs int           `yaml:"ping_secs"` // default 120, negative disables pings
}

// LoadConfig decodes a YAML configuration and applies defaults.
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client_id missing in config file")
	}
	if cfg.Tick <= 0 {
		cfg.Tick = 50 * time.Millisecond
	}
	if cfg.PingSecs == 0 {
		cfg.PingSecs = 120
	}
	if cfg.Rotary.Enabled() {
		cfg.Rotary = cfg.Rotary.WithDefaults()
	}
	return &cfg, nil
}
