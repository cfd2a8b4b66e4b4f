package quad

import (
	"encoding/json"
	"os"

	"github.com/gwillem/quadpod/pkg/transport"
)

const DefaultConfigFile = "quadpod.json"

// Config is the on-disk robot configuration: where the servo bus lives, how
// its counts map to joint radians, and the control parameters.
type Config struct {
	Port        string                       `json:"port"`
	Calibration []transport.JointCalibration `json:"calibration,omitempty"`
	Params      Parameters                   `json:"parameters"`
}

// IsCalibrated returns true if the robot has calibration data.
func (c *Config) IsCalibrated() bool {
	return len(c.Calibration) == transport.NumJoints
}

// LoadConfig loads configuration from the default config file.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{Params: Defaults()}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists.
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}
