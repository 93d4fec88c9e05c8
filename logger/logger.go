package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// MaxLogBytes is the size at which the log file is truncated to its tail.
const MaxLogBytes = 1 << 20

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LogLevelTrace:
		return "TRACE"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a string into a LogLevel, defaulting to info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(s) {
	case "TRACE":
		return LogLevelTrace
	case "DEBUG":
		return LogLevelDebug
	case "INFO":
		return LogLevelInfo
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger writes leveled, timestamped lines to a file, truncating the file
// to its tail when it grows past MaxLogBytes.
type Logger struct {
	mu    sync.Mutex
	file  *os.File
	size  int64
	level LogLevel
}

var globalLogger *Logger

// defaultLogger is used before the global logger is initialized
var defaultLogger = &Logger{file: os.Stderr, level: LogLevelInfo}

// New creates a Logger writing to file at the given level and installs it
// as the global logger. The file must be opened read-write without O_APPEND:
// rotation rewrites the tail in place, which ReadAt/WriteAt cannot do on a
// write-only or append-mode descriptor. Writes are serialized by the
// logger's mutex, so append mode is not needed for ordering.
func New(file *os.File, level LogLevel) *Logger {
	l := &Logger{file: file, level: level}
	if info, err := file.Stat(); err == nil {
		l.size = info.Size()
	}
	file.Seek(0, io.SeekEnd)
	globalLogger = l
	return l
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetGlobalLevel sets the logging level on the global logger
func SetGlobalLevel(level LogLevel) {
	if globalLogger != nil {
		globalLogger.SetLevel(level)
	}
}

func (l *Logger) log(level LogLevel, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	msg := fmt.Sprintf("%s [%s] %s\n", time.Now().Format("2006/01/02 15:04:05"), level.String(), fmt.Sprintf(format, v...))
	n, err := l.file.WriteString(msg)
	if err != nil {
		return
	}
	l.size += int64(n)
	if l.size > MaxLogBytes {
		l.truncateToTail()
	}
}

// truncateToTail keeps the most recent half of the file. Called with mu held.
func (l *Logger) truncateToTail() {
	if l.file == os.Stderr || l.file == os.Stdout {
		l.size = 0
		return
	}

	keep := int64(MaxLogBytes / 2)
	buf := make([]byte, keep)
	if _, err := l.file.ReadAt(buf, l.size-keep); err != nil {
		return
	}
	// Drop the partial first line so the file starts at a line boundary
	if idx := strings.IndexByte(string(buf), '\n'); idx >= 0 {
		buf = buf[idx+1:]
	}
	if err := l.file.Truncate(0); err != nil {
		return
	}
	if _, err := l.file.WriteAt(buf, 0); err != nil {
		return
	}
	l.size = int64(len(buf))
	l.file.Seek(l.size, 0)
}

// Trace returns a function that logs operation duration when called.
// Returns a no-op when TRACE level is disabled.
// Usage: defer logger.Trace("operation")()
func Trace(name string) func() {
	l := active()
	l.mu.Lock()
	enabled := l.level <= LogLevelTrace
	l.mu.Unlock()
	if !enabled {
		return func() {}
	}
	start := time.Now()
	return func() {
		l.log(LogLevelTrace, "%s: %v", name, time.Since(start))
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...any) { l.log(LogLevelDebug, format, v...) }

// Info logs an info message
func (l *Logger) Info(format string, v ...any) { l.log(LogLevelInfo, format, v...) }

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...any) { l.log(LogLevelWarn, format, v...) }

// Error logs an error message
func (l *Logger) Error(format string, v ...any) { l.log(LogLevelError, format, v...) }

// Close closes the underlying file
func (l *Logger) Close() error {
	if l.file == os.Stderr || l.file == os.Stdout {
		return nil
	}
	return l.file.Close()
}

func active() *Logger {
	if globalLogger != nil {
		return globalLogger
	}
	return defaultLogger
}

// Package-level logging functions that use the global logger (or stderr if
// not initialized).
func Debug(format string, v ...any) { active().Debug(format, v...) }
func Info(format string, v ...any)  { active().Info(format, v...) }
func Warn(format string, v ...any)  { active().Warn(format, v...) }
func Error(format string, v ...any) { active().Error(format, v...) }
