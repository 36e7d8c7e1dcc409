// Package config loads and validates xsim's persistent configuration:
// logging, report output, and the default simulation run options,
// adapted from the teacher's pkg/config layout.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level xsim configuration.
type Config struct {
	Framework  FrameworkConfig  `yaml:"framework"`
	Simulation SimulationConfig `yaml:"simulation"`
	Reporting  ReportingConfig  `yaml:"reporting"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// FrameworkConfig contains general framework settings.
type FrameworkConfig struct {
	Version   string `yaml:"version"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// SimulationConfig supplies the run subcommand's Simulator options
// (pkg/statemachine.Options) and exploration mode
// (pkg/simulation.Mode). An explicit --mode flag replaces the mode;
// the boolean flags can only switch an option on. The profile
// subcommand does not read this section.
type SimulationConfig struct {
	Mode                string `yaml:"mode"`
	AllowImpossible     bool   `yaml:"allow_impossible"`
	TrackImpossible     bool   `yaml:"track_impossible"`
	TrackMinimalOnly    bool   `yaml:"track_minimal_only"`
	TrackEquivalentOnly bool   `yaml:"track_equivalent_only"`
}

// ReportingConfig contains report output settings.
type ReportingConfig struct {
	OutputDir string `yaml:"output_dir"`
	Filter    string `yaml:"filter"`
}

// MetricsConfig contains the optional Prometheus exporter settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Framework: FrameworkConfig{
			Version:   "v1",
			LogLevel:  "info",
			LogFormat: "text",
		},
		Simulation: SimulationConfig{
			Mode:            "normal",
			TrackImpossible: true,
		},
		Reporting: ReportingConfig{
			OutputDir: "results",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9464",
		},
	}
}

// Load loads configuration from a YAML file, falling back to
// DefaultConfig when path does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expandedData, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Reporting.OutputDir == "" {
		return fmt.Errorf("reporting.output_dir is required")
	}

	switch c.Simulation.Mode {
	case "normal", "attack_favor", "defense_favor", "public_only":
	default:
		return fmt.Errorf("simulation.mode %q must be one of normal|attack_favor|defense_favor|public_only", c.Simulation.Mode)
	}

	return nil
}
