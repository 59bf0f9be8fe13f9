// Package logger provides pipeline logging for the studypipe CLI.
// Warnings and errors always reach stderr. When verbose mode is enabled via
// the --verbose flag, debug and info messages are printed too, so users can
// follow each stage of a run. An optional log file receives every info and
// above entry as JSON.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	logFile *os.File

	consoleLevel = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	fileLevel    = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	base *zap.SugaredLogger
)

func init() {
	rebuild()
}

// rebuild must be called with mu held.
func rebuild() {
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder(output), zapcore.AddSync(output), consoleLevel),
	}
	if logFile != nil {
		enc := zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(logFile), fileLevel))
	}
	base = zap.New(zapcore.NewTee(cores...)).Sugar()
}

func consoleEncoder(w io.Writer) zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	if isTerminal(w) {
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	} else {
		cfg.TimeKey = ""
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapcore.NewConsoleEncoder(cfg)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		consoleLevel.SetLevel(zapcore.DebugLevel)
		fileLevel.SetLevel(zapcore.DebugLevel)
	} else {
		consoleLevel.SetLevel(zapcore.WarnLevel)
		fileLevel.SetLevel(zapcore.InfoLevel)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the console writer.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// SetLogFile tees JSON entries to path, appending. An empty path closes the
// current log file.
func SetLogFile(path string) error {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			rebuild()
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = f
	}
	rebuild()
	return nil
}

// Sync flushes buffered entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = base.Sync()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Debug logs a debug message.
func Debug(format string, args ...any) {
	current().Debugf(format, args...)
}

// Section logs a stage marker.
func Section(name string) {
	current().Infof("=== %s ===", name)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	current().Infof(format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	current().Warnf(format, args...)
}

// Error logs an error.
func Error(format string, args ...any) {
	current().Errorf(format, args...)
}

// Logger carries structured fields across related messages.
type Logger struct {
	s *zap.SugaredLogger
}

// With returns a Logger that attaches the given key/value pairs to every entry.
// Values under secret-looking keys are redacted.
func With(keysAndValues ...any) *Logger {
	return &Logger{s: current().With(redact(keysAndValues)...)}
}

// With returns a child Logger with additional fields.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{s: l.s.With(redact(keysAndValues)...)}
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) { l.s.Debugf(format, args...) }

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) { l.s.Infof(format, args...) }

// Warn logs a warning.
func (l *Logger) Warn(format string, args ...any) { l.s.Warnf(format, args...) }

// Error logs an error.
func (l *Logger) Error(format string, args ...any) { l.s.Errorf(format, args...) }

// Section logs a stage marker.
func (l *Logger) Section(name string) { l.s.Infof("=== %s ===", name) }

func redact(kv []any) []any {
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		k := strings.ToLower(key)
		if strings.Contains(k, "api_key") || strings.Contains(k, "apikey") ||
			strings.Contains(k, "token") || strings.Contains(k, "password") {
			out[i+1] = "[REDACTED]"
		}
	}
	return out
}
