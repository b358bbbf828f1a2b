// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"os"
	"strconv"
	"strings"

	"github.com/gobuffalo/envy"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Environment keys read by LoadConfiguration
const (
	EnvLogLevel  = "GRVK_LOG_LEVEL"
	EnvLogFormat = "GRVK_LOG_FORMAT"
	EnvTraceFile = "GRVK_TRACE_FILE"
	EnvDebug     = "GRVK_DEBUG"
)

// Log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Configuration defines the process wide settings of the translation layer
type Configuration struct {
	LogLevel  log.Level
	LogFormat string

	// TraceFile is where the call trace is written, empty to disable
	TraceFile string

	// Debug enables target API validation
	Debug bool
}

// DefaultConfiguration is used for settings absent from the environment.
var DefaultConfiguration = Configuration{
	LogLevel:  log.WarnLevel,
	LogFormat: LogFormatText,
}

// ParseConfiguration builds a Configuration from environment style
// key/value pairs. Unknown keys are ignored.
func ParseConfiguration(env map[string]string) (Configuration, error) {
	cfg := DefaultConfiguration

	if value, ok := env[EnvLogLevel]; ok && value != "" {
		level, err := log.ParseLevel(value)
		if err != nil {
			return cfg, errors.Wrap(err, EnvLogLevel)
		}
		cfg.LogLevel = level
	}

	if value, ok := env[EnvLogFormat]; ok && value != "" {
		switch format := strings.ToLower(value); format {
		case LogFormatText, LogFormatJSON:
			cfg.LogFormat = format
		default:
			return cfg, errors.Errorf("%s: unknown format %q", EnvLogFormat, value)
		}
	}

	cfg.TraceFile = env[EnvTraceFile]

	if value, ok := env[EnvDebug]; ok && value != "" {
		debug, err := strconv.ParseBool(value)
		if err != nil {
			return cfg, errors.Wrap(err, EnvDebug)
		}
		cfg.Debug = debug
	}

	return cfg, nil
}

// LoadConfiguration loads the given .env files, if they exist, into the
// environment and parses the result.
func LoadConfiguration(files ...string) (Configuration, error) {
	var existing []string
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) > 0 {
		if err := envy.Load(existing...); err != nil {
			return DefaultConfiguration, errors.Wrap(err, "load environment")
		}
	}
	return ParseConfiguration(envy.Map())
}

// NewLogger creates a logger set up as cfg describes.
func NewLogger(cfg Configuration) *log.Logger {
	logger := log.New()
	logger.SetLevel(cfg.LogLevel)
	if cfg.LogFormat == LogFormatJSON {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}
	return logger
}
