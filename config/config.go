package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("config: invalid")

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type PhysicsConfig struct {
	GravityY    float64 `yaml:"gravity_y"`
	StepHz      float64 `yaml:"step_hz"`
	MaxSubSteps int     `yaml:"max_sub_steps"`
	Iterations  uint    `yaml:"iterations"`
}

type ClockConfig struct {
	Tempo        float64 `yaml:"tempo"`
	BeatsPerBar  int     `yaml:"beats_per_bar"`
	StepsPerBeat int     `yaml:"steps_per_beat"`
	// AudioDriven hands Clock.Update to the sound goroutine instead of the frame loop.
	AudioDriven bool `yaml:"audio_driven"`
}

type LibraryConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// Config is the player configuration. Zero fields in a loaded file keep their
// defaults.
type Config struct {
	Debug     bool          `yaml:"debug"`
	LogLevel  string        `yaml:"log_level"`
	LogFormat string        `yaml:"log_format"`
	Card      string        `yaml:"card"`
	Window    WindowConfig  `yaml:"window"`
	Physics   PhysicsConfig `yaml:"physics"`
	Clock     ClockConfig   `yaml:"clock"`
	Library   LibraryConfig `yaml:"library"`
}

func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Card:      "demo",
		Window: WindowConfig{
			Width:  800,
			Height: 1120,
			Title:  "rulesplayer",
		},
		Physics: PhysicsConfig{
			GravityY:    9.8,
			StepHz:      120,
			MaxSubSteps: 8,
			Iterations:  10,
		},
		Clock: ClockConfig{
			Tempo:        120,
			BeatsPerBar:  4,
			StepsPerBeat: 4,
		},
		Library: LibraryConfig{
			Dir: "prefabs",
		},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: load %s: %w", path, err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: load %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data into cfg and validates the result.
func Parse(data []byte, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalid)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Physics.StepHz <= 0:
		return fmt.Errorf("%w: physics.step_hz must be positive", ErrInvalid)
	case c.Physics.MaxSubSteps <= 0:
		return fmt.Errorf("%w: physics.max_sub_steps must be positive", ErrInvalid)
	case c.Physics.Iterations == 0:
		return fmt.Errorf("%w: physics.iterations must be non-zero", ErrInvalid)
	case c.Clock.Tempo <= 0:
		return fmt.Errorf("%w: clock.tempo must be positive", ErrInvalid)
	case c.Clock.BeatsPerBar <= 0:
		return fmt.Errorf("%w: clock.beats_per_bar must be positive", ErrInvalid)
	case c.Clock.StepsPerBeat <= 0:
		return fmt.Errorf("%w: clock.steps_per_beat must be positive", ErrInvalid)
	}
	return nil
}
