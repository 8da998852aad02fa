// Package logger provides leveled, structured logging for release-please.
//
// The package keeps a process-wide default logger for CLI output, but every
// library component that logs accepts an explicit *Logger so callers can
// inject a sink (see Noop) instead of inheriting global state.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level represents the severity level of log messages
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	// offLevel is above every real level; used by Noop.
	offLevel
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a flag value to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Config holds the logger configuration
type Config struct {
	Level     Level
	UseColor  bool
	JSON      bool
	Component string
}

// Logger is a leveled logger writing either pretty or JSON lines.
type Logger struct {
	config Config
	logger *log.Logger
}

// Default logger instance used by the package-level convenience functions.
var defaultLogger = New(Config{Level: InfoLevel})

// New creates a logger writing to stderr with the given configuration.
func New(config Config) *Logger {
	return &Logger{
		config: config,
		logger: log.New(os.Stderr, "", 0),
	}
}

// Noop returns a logger that discards everything. Components that take a
// *Logger should treat a nil logger as equivalent to Noop().
func Noop() *Logger {
	return &Logger{
		config: Config{Level: offLevel},
		logger: log.New(io.Discard, "", 0),
	}
}

// Initialize replaces the default logger. Called once from the root command.
func Initialize(config Config) {
	defaultLogger = New(config)
}

// SetOutput redirects the default logger's output (used by tests).
func SetOutput(w io.Writer) {
	defaultLogger.logger.SetOutput(w)
}

// WithComponent returns a copy of the logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	if l == nil {
		return Noop()
	}
	clone := *l
	clone.config.Component = name
	return &clone
}

// Log writes a log message at the given level.
func (l *Logger) Log(level Level, message string, fields ...Field) {
	if l == nil || level < l.config.Level {
		return
	}

	entry := logEntry{
		Time:      time.Now(),
		Level:     level.String(),
		Message:   message,
		Component: l.config.Component,
	}
	if len(fields) > 0 {
		entry.Fields = make(map[string]interface{}, len(fields))
		for _, field := range fields {
			entry.Fields[field.Key] = field.Value
		}
	}

	var output string
	if l.config.JSON {
		jsonBytes, _ := json.Marshal(entry)
		output = string(jsonBytes)
	} else {
		output = l.formatPretty(entry)
	}

	l.logger.Print(output)
}

// Debug logs at debug level.
func (l *Logger) Debug(message string, fields ...Field) { l.Log(DebugLevel, message, fields...) }

// Info logs at info level.
func (l *Logger) Info(message string, fields ...Field) { l.Log(InfoLevel, message, fields...) }

// Warn logs at warn level.
func (l *Logger) Warn(message string, fields ...Field) { l.Log(WarnLevel, message, fields...) }

// Error logs at error level.
func (l *Logger) Error(message string, fields ...Field) { l.Log(ErrorLevel, message, fields...) }

// formatPretty formats the log entry in a human-readable way
func (l *Logger) formatPretty(entry logEntry) string {
	var builder strings.Builder

	builder.WriteString(entry.Time.Format("2006-01-02 15:04:05"))

	level := entry.Level
	if l.config.UseColor {
		switch entry.Level {
		case "DEBUG":
			level = "\033[36mDEBUG\033[0m" // Cyan
		case "INFO":
			level = "\033[32mINFO\033[0m" // Green
		case "WARN":
			level = "\033[33mWARN\033[0m" // Yellow
		case "ERROR":
			level = "\033[31mERROR\033[0m" // Red
		}
	}
	builder.WriteString(fmt.Sprintf(" [%s]", level))

	if entry.Component != "" {
		builder.WriteString(fmt.Sprintf(" %s:", entry.Component))
	}

	builder.WriteString(fmt.Sprintf(" %s", entry.Message))

	if len(entry.Fields) > 0 {
		builder.WriteString(" {")
		first := true
		for k, v := range entry.Fields {
			if !first {
				builder.WriteString(", ")
			}
			builder.WriteString(fmt.Sprintf("%s=%v", k, v))
			first = false
		}
		builder.WriteString("}")
	}

	return builder.String()
}

// Field represents a structured field in a log entry
type Field struct {
	Key   string
	Value interface{}
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field
func Err(err error) Field {
	return Field{Key: "error", Value: err.Error()}
}

type logEntry struct {
	Time      time.Time              `json:"time"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// Convenience functions for the default logger.

func Debug(message string, fields ...Field) { defaultLogger.Debug(message, fields...) }

func Info(message string, fields ...Field) { defaultLogger.Info(message, fields...) }

func Warn(message string, fields ...Field) { defaultLogger.Warn(message, fields...) }

func Error(message string, fields ...Field) { defaultLogger.Error(message, fields...) }

// Default returns the process-wide logger.
func Default() *Logger { return defaultLogger }
