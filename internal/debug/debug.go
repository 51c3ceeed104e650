package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
)

// Options configures the process-wide logger.
type Options struct {
	// Debug enables debug level output.
	Debug bool
	// Verbose enables info level output (ignored when Debug is set).
	Verbose bool
	// NoColor disables ANSI colors in console output.
	NoColor bool
	// Output is the console destination. Defaults to os.Stderr.
	Output io.Writer
	// LogFile, when non-empty, receives a JSON copy of every log line.
	LogFile string
}

var (
	mu      sync.RWMutex
	opts    = Options{Output: os.Stderr}
	logger  zerolog.Logger
	logFile *os.File
)

func init() {
	rebuildLocked()
}

// Setup replaces the logger configuration. A log file that cannot be
// opened is reported as a warning and console logging continues.
func Setup(o Options) {
	mu.Lock()
	defer mu.Unlock()

	if o.Output == nil {
		o.Output = os.Stderr
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var fileErr error
	if o.LogFile != "" {
		logFile, fileErr = openLogFile(o.LogFile)
	}
	opts = o
	rebuildLocked()

	if fileErr != nil {
		logger.Warn().Err(fileErr).Str("path", o.LogFile).Msg("Failed to open log file, logging to console only")
	}
}

// SetDebug enables or disables debug mode
func SetDebug(enable bool) {
	mu.Lock()
	defer mu.Unlock()
	opts.Debug = enable
	rebuildLocked()
}

// IsEnabled returns whether debug mode is enabled
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return opts.Debug
}

// SetNoColor enables or disables colored output
func SetNoColor(disable bool) {
	mu.Lock()
	defer mu.Unlock()
	opts.NoColor = disable
	rebuildLocked()
}

// SetOutput redirects console output (used by tests).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	opts.Output = w
	rebuildLocked()
}

// Logger returns a logger tagged with the given component name. Info lines
// reach the console under --verbose and the log file whenever one is set.
func Logger(component string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger.With().Str("component", component).Logger()
}

// Debug prints a debug message with timestamp
func Debug(format string, args ...interface{}) {
	if !IsEnabled() {
		return
	}
	current().Debug().Msgf(format, args...)
}

// Debugf is an alias for Debug
func Debugf(format string, args ...interface{}) {
	Debug(format, args...)
}

// DebugSection prints a section header for debug output
func DebugSection(section string) {
	if !IsEnabled() {
		return
	}
	current().Debug().Msgf("=== %s ===", section)
}

// DebugValue prints key=value style debug info
func DebugValue(key string, value interface{}) {
	if !IsEnabled() {
		return
	}
	current().Debug().Msgf("%s = %v", key, value)
}

// DefaultLogFilePath returns $XDG_STATE_HOME/doxx/doxx.log.
func DefaultLogFilePath() string {
	return filepath.Join(xdg.StateHome, "doxx", "doxx.log")
}

func current() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}

func rebuildLocked() {
	console := zerolog.ConsoleWriter{
		Out:        opts.Output,
		NoColor:    opts.NoColor,
		TimeFormat: "15:04:05.000",
		FormatLevel: func(i interface{}) string {
			return "[" + strings.ToUpper(fmt.Sprint(i)) + "]"
		},
	}

	level := zerolog.WarnLevel
	switch {
	case opts.Debug:
		level = zerolog.DebugLevel
	case opts.Verbose:
		level = zerolog.InfoLevel
	}

	// The log file always receives info lines; the console keeps its own level.
	var w io.Writer = console
	if logFile != nil {
		w = zerolog.MultiLevelWriter(
			&zerolog.FilteredLevelWriter{Writer: zerolog.LevelWriterAdapter{Writer: console}, Level: level},
			logFile,
		)
		level = min(level, zerolog.InfoLevel)
	}

	l := zerolog.New(w).Level(level).With().Timestamp().Logger()
	if opts.Debug {
		l = l.With().Caller().Logger()
	}
	logger = l
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
