package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// ControllerType identifies the kind of controller
type ControllerType string

const (
	ControllerLaunchpadX ControllerType = "launchpad-x"
)

// ControllerConfig defines a saved controller configuration
type ControllerConfig struct {
	PortName    string         `json:"portName"`
	Type        ControllerType `json:"type"`
	AutoConnect bool           `json:"autoConnect"`
}

// SynthOutputConfig defines the synth MIDI output
type SynthOutputConfig struct {
	PortName string `json:"portName,omitempty"` // substring match; empty picks the first port
	Channel  int    `json:"channel"`            // 0-15
}

// ClockConfig selects the pulse source and the transport defaults
type ClockConfig struct {
	Source      string `json:"source"`             // internal or external
	PortName    string `json:"portName,omitempty"` // external clock input
	Tempo       int    `json:"tempo"`
	ResetPolicy string `json:"resetPolicy"`
}

// NoteConfig tunes pitch and velocity mapping
type NoteConfig struct {
	DefaultOctave   int `json:"defaultOctave"`
	DefaultVelocity int `json:"defaultVelocity"`
	VelocityDelta   int `json:"velocityDelta"`
}

// StorageConfig controls where patterns are kept
type StorageConfig struct {
	Dir        string `json:"dir,omitempty"` // empty: ~/.config/go-step/patterns
	Keep       int    `json:"keep"`          // saves kept on disk, 0 keeps all
	AutosaveMS int    `json:"autosaveMs"`
}

// Config is the main configuration structure
type Config struct {
	Controllers []ControllerConfig `json:"controllers,omitempty"`
	SynthOutput SynthOutputConfig  `json:"synthOutput"`
	Clock       ClockConfig        `json:"clock"`
	Notes       NoteConfig         `json:"notes"`
	Storage     StorageConfig      `json:"storage"`
	Palette     string             `json:"palette,omitempty"` // GIMP .gpl file
	HTTPAddr    string             `json:"httpAddr,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Controllers: []ControllerConfig{
			{
				PortName:    "Launchpad X LPX MIDI",
				Type:        ControllerLaunchpadX,
				AutoConnect: true,
			},
		},
		Clock: ClockConfig{
			Source:      "internal",
			Tempo:       120,
			ResetPolicy: "none",
		},
		Notes: NoteConfig{
			DefaultOctave:   5,
			DefaultVelocity: 63,
			VelocityDelta:   31,
		},
		Storage: StorageConfig{
			Keep:       50,
			AutosaveMS: 2000,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "home dir")
	}
	return filepath.Join(home, ".config", "go-step"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config at path (ConfigPath if empty), or returns defaults
// if not found. Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	cfg.Validate()
	return cfg, nil
}

// Save writes the config to path (ConfigPath if empty)
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "write %s", path)
}

// Validate clamps every value into its legal range.
func (c *Config) Validate() {
	c.SynthOutput.Channel = clampInt(c.SynthOutput.Channel, 0, 15)

	if c.Clock.Source != "external" {
		c.Clock.Source = "internal"
	}
	if c.Clock.Tempo == 0 {
		c.Clock.Tempo = 120
	}
	c.Clock.Tempo = clampInt(c.Clock.Tempo, 20, 300)
	switch c.Clock.ResetPolicy {
	case "none", "every-measure", "every-other-measure":
	default:
		c.Clock.ResetPolicy = "none"
	}

	c.Notes.DefaultOctave = clampInt(c.Notes.DefaultOctave, 0, 10)
	c.Notes.DefaultVelocity = clampInt(c.Notes.DefaultVelocity, 1, 127)
	c.Notes.VelocityDelta = clampInt(c.Notes.VelocityDelta, 0, 127)

	if c.Storage.Keep < 0 {
		c.Storage.Keep = 0
	}
	if c.Storage.AutosaveMS <= 0 {
		c.Storage.AutosaveMS = 2000
	}
}

// AutosaveDelay returns the storage debounce as a duration.
func (c *Config) AutosaveDelay() time.Duration {
	return time.Duration(c.Storage.AutosaveMS) * time.Millisecond
}

// PatternsDir returns the configured storage directory or the default.
func (c *Config) PatternsDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "patterns"), nil
}

// FindController finds a controller config by port name
func (c *Config) FindController(portName string) *ControllerConfig {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == portName {
			return &c.Controllers[i]
		}
	}
	return nil
}

// AddController adds or updates a controller config
func (c *Config) AddController(ctrl ControllerConfig) {
	for i := range c.Controllers {
		if c.Controllers[i].PortName == ctrl.PortName {
			c.Controllers[i] = ctrl
			return
		}
	}
	c.Controllers = append(c.Controllers, ctrl)
}

// ManualControllers returns the port names of controllers with autoConnect
// disabled. The device manager leaves them alone.
func (c *Config) ManualControllers() []string {
	var ports []string
	for _, ctrl := range c.Controllers {
		if !ctrl.AutoConnect {
			ports = append(ports, ctrl.PortName)
		}
	}
	return ports
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
