package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogFormat represents the output format for logs
type LogFormat string

const (
	FormatAuto   LogFormat = "auto"
	FormatPretty LogFormat = "pretty"
	FormatJSON   LogFormat = "json"
	FormatText   LogFormat = "text"
)

// Config holds logging configuration
type Config struct {
	Level  LogLevel  // Minimum log level to output
	Format LogFormat // Output format (auto, pretty, json or text)
	Output io.Writer // Output destination (defaults to stderr)
	Quiet  bool      // If true, suppress debug and info output
}

// Logger wraps slog.Logger with secure logging practices
type Logger struct {
	logger *slog.Logger
	config Config
}

// NewLogger creates a new secure logger instance
func NewLogger(config Config) *Logger {
	// Set default output to stderr if not specified
	if config.Output == nil {
		config.Output = os.Stderr
	}

	level := convertLogLevel(config.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch resolveFormat(config.Format, config.Output) {
	case FormatJSON:
		handler = slog.NewJSONHandler(config.Output, opts)
	case FormatPretty:
		handler = charmlog.NewWithOptions(config.Output, charmlog.Options{
			Level:           charmlog.Level(level),
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
		})
	default:
		handler = slog.NewTextHandler(config.Output, opts)
	}

	return &Logger{
		logger: slog.New(handler),
		config: config,
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLogger(Config{Level: LevelError, Format: FormatText, Output: io.Discard, Quiet: true})
}

// resolveFormat picks pretty output for terminals when the format is auto
func resolveFormat(format LogFormat, w io.Writer) LogFormat {
	if format != FormatAuto && format != "" {
		return format
	}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return FormatPretty
	}
	return FormatText
}

// convertLogLevel converts our LogLevel to slog.Level
func convertLogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	if l.config.Quiet {
		return
	}
	l.logger.Debug(msg, args...)
}

// Info logs an informational message
func (l *Logger) Info(msg string, args ...any) {
	if l.config.Quiet {
		return // Suppress non-error output in quiet mode
	}
	l.logger.Info(msg, args...)
}

// Warn logs a warning
func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.logger.Error(msg, args...)
}

// ErrorContext logs an error message with context
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.logger.ErrorContext(ctx, msg, args...)
}

// LogConfigLoad logs configuration loading events
func (l *Logger) LogConfigLoad(source string, clusters int) {
	l.Debug("configuration loaded",
		"source", source,
		"clusters", clusters,
	)
}

// LogConfigWarning reports config keys that were ignored
func (l *Logger) LogConfigWarning(source string, dropped []string) {
	if len(dropped) == 0 {
		return
	}
	l.Warn("ignoring unknown configuration keys",
		"source", source,
		"keys", strings.Join(dropped, ","),
	)
}

// LogGroupsResolved logs the outcome of group building
func (l *Logger) LogGroupsResolved(groups, hosts int, tabSplit bool) {
	l.Debug("groups resolved",
		"groups", groups,
		"hosts", hosts,
		"tab_split", tabSplit,
	)
}

// LogGroupLayout logs the grid chosen for a group
func (l *Logger) LogGroupLayout(group, rows, cols int, direction string, fullscreen bool) {
	l.Debug("group layout",
		"group", group,
		"rows", rows,
		"cols", cols,
		"direction", direction,
		"fullscreen", fullscreen,
	)
}

// LogPaneLaunch logs a session being typed into a pane
func (l *Logger) LogPaneLaunch(group int, pane, host string, delay time.Duration) {
	l.Debug("pane launched",
		"group", group,
		"pane", pane,
		"host", host,
		"delay_ms", delay.Milliseconds(),
		// Note: Never log the command line or environment values
	)
}

// LogUnusedPane logs a pane left without a host
func (l *Logger) LogUnusedPane(group int, pane string) {
	l.Debug("pane unused",
		"group", group,
		"pane", pane,
	)
}

// LogBroadcast logs the broadcast domains being enabled
func (l *Logger) LogBroadcast(domains, panes int) {
	l.Debug("broadcast enabled",
		"domains", domains,
		"panes", panes,
	)
}

// LogPreflightWarning logs a non-fatal preflight finding
func (l *Logger) LogPreflightWarning(check, message string) {
	l.Warn("preflight warning",
		"check", check,
		"warning", message,
	)
}

// LogLaunchComplete logs the end of a launch
func (l *Logger) LogLaunchComplete(multiplexer string, panes int, duration time.Duration) {
	l.Info("sessions launched",
		"multiplexer", multiplexer,
		"panes", panes,
		"duration_ms", duration.Milliseconds(),
	)
}

// IsQuiet returns whether the logger is in quiet mode
func (l *Logger) IsQuiet() bool {
	return l.config.Quiet
}

