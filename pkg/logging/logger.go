// Package logging configures zerolog for the API-Football client and hands
// out component loggers.
//
// Call Setup once at startup, before any component is constructed; NewLogger
// derives from the global logger at call time.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a level name as accepted in configuration.
type LogLevel string

// Supported levels.
const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// ServiceName is attached to every record as the "service" field.
const ServiceName = "apifootball"

var levels = map[string]zerolog.Level{
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
}

// Config holds logger configuration.
type Config struct {
	Level LogLevel

	// Pretty switches from JSON lines to zerolog's console writer.
	Pretty bool

	// Output defaults to os.Stderr when nil.
	Output io.Writer
}

// DefaultConfig returns info-level JSON logging to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// Setup installs the global logger and level and returns the logger.
func Setup(cfg Config) zerolog.Logger {
	level, ok := ParseLevel(string(cfg.Level))
	if !ok {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	log.Logger = zerolog.New(out).With().
		Timestamp().
		Str("service", ServiceName).
		Logger()
	return log.Logger
}

// ParseLevel maps a case-insensitive level name to a zerolog level.
func ParseLevel(s string) (zerolog.Level, bool) {
	level, ok := levels[strings.ToLower(strings.TrimSpace(s))]
	return level, ok
}

// ValidLevel reports whether s names a supported level.
func ValidLevel(s string) bool {
	_, ok := ParseLevel(s)
	return ok
}

// NewLogger returns a child of the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Levels in use:
//
//	debug  cache hits and misses, shared in-flight calls, stale orchestrator
//	       results discarded after a scope change
//	info   provider calls that succeeded, quota sync and reset, reference data
//	       loaded from the API, server start and stop
//	warn   per-minute rate limit retries, malformed cache entries purged,
//	       storage failures treated as misses, failed remote searches
//	error  exhausted retries, daily quota blocks
//
// Common fields: component, resource, key, scope, attempt, used, limit.
