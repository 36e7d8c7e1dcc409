package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xsimrunner/xsim/pkg/config"
	"github.com/xsimrunner/xsim/pkg/telemetry"
)

// loadConfig loads the configuration from file, auto-generating a
// default one on first run.
func loadConfig() (*config.Config, error) {
	configPath := cfgFile
	if configPath == "" {
		configPath = "config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := config.DefaultConfig()
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from cfg, raising verbosity
// when --verbose was passed.
func newLogger(cfg *config.Config) zerolog.Logger {
	level := cfg.Framework.LogLevel
	if verbose {
		level = "debug"
	}
	return telemetry.NewLogger(telemetry.LoggerConfig{
		Level:  level,
		Format: telemetry.LogFormat(cfg.Framework.LogFormat),
		Output: os.Stdout,
	})
}

// parseFieldArgs parses `FIELD=VAL,VAL,...` positional CLI arguments
// into the override map ApplyOverrides expects (spec.md §6: "run
// [OUTPUT_DIR] [FIELD=VAL,VAL,... ...]").
func parseFieldArgs(args []string) (map[string][]string, error) {
	overrides := make(map[string][]string, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("malformed field argument %q, expected FIELD=VAL,VAL,...", arg)
		}
		overrides[parts[0]] = strings.Split(parts[1], ",")
	}
	return overrides, nil
}
