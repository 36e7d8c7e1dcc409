// Package telemetry provides the engine's structured logging and
// Prometheus metrics exporter, mirrored on the teacher's
// pkg/reporting logger and PerfSpect's metrics-server pattern.
package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// LogFormat selects the logger's console rendering.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// LoggerConfig configures NewLogger.
type LoggerConfig struct {
	Level  string
	Format LogFormat
	Output io.Writer
}

// NewLogger builds a zerolog.Logger from cfg: JSON by default, a
// timestamped console writer when Format is LogFormatText.
func NewLogger(cfg LoggerConfig) zerolog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}

	var output io.Writer = cfg.Output
	if cfg.Format == LogFormatText {
		output = zerolog.ConsoleWriter{
			Out:        cfg.Output,
			TimeFormat: time.RFC3339,
		}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()

	switch cfg.Level {
	case "debug":
		logger = logger.Level(zerolog.DebugLevel)
	case "warn":
		logger = logger.Level(zerolog.WarnLevel)
	case "error":
		logger = logger.Level(zerolog.ErrorLevel)
	default:
		logger = logger.Level(zerolog.InfoLevel)
	}

	return logger
}
