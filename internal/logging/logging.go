// Package logging builds the process slog.Logger: stdout plus a daily log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultPrefix    = "journal"
	serviceName      = "trade-journal"
	defaultRetention = 7
)

const (
	envLogLevel  = "TRADE_JOURNAL_LOG_LEVEL"
	envLogFormat = "TRADE_JOURNAL_LOG_FORMAT"
)

// Options selects level and format. Empty fields fall back to the
// TRADE_JOURNAL_LOG_LEVEL and TRADE_JOURNAL_LOG_FORMAT environment variables.
type Options struct {
	Level         string
	Format        string
	RetentionDays int
	// Console receives a copy of every record; nil means stdout.
	Console io.Writer
}

// DailyWriter writes logs into a date-named file and prunes files older than
// the retention window.
type DailyWriter struct {
	dir           string
	prefix        string
	retentionDays int
	now           func() time.Time

	mu          sync.Mutex
	currentDate string
	file        *os.File
}

// NewDailyWriter creates a daily rotating writer in dir.
func NewDailyWriter(dir string, retentionDays int) (*DailyWriter, error) {
	return NewDailyWriterWithPrefix(dir, defaultPrefix, retentionDays)
}

// NewDailyWriterWithPrefix creates a daily rotating writer with a custom prefix.
func NewDailyWriterWithPrefix(dir, prefix string, retentionDays int) (*DailyWriter, error) {
	if retentionDays <= 0 {
		retentionDays = defaultRetention
	}
	if prefix == "" {
		prefix = defaultPrefix
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	w := &DailyWriter{
		dir:           dir,
		prefix:        prefix,
		retentionDays: retentionDays,
		now:           time.Now,
	}
	if err := w.rotateIfNeeded(w.now()); err != nil {
		return nil, err
	}
	return w, nil
}

// Write implements io.Writer.
func (w *DailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.rotateIfNeeded(w.now()); err != nil {
		return 0, err
	}
	return w.file.Write(p)
}

// Close closes the current file.
func (w *DailyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Path returns the file currently written to.
func (w *DailyWriter) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pathFor(w.currentDate)
}

func (w *DailyWriter) pathFor(date string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s.log", w.prefix, date))
}

func (w *DailyWriter) rotateIfNeeded(now time.Time) error {
	date := now.Format("20060102")
	if date == w.currentDate && w.file != nil {
		return nil
	}
	if w.file != nil {
		_ = w.file.Close()
	}
	file, err := os.OpenFile(w.pathFor(date), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.currentDate = date
	w.file = file
	w.cleanup(now)
	return nil
}

func (w *DailyWriter) cleanup(now time.Time) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	cutoff := now.AddDate(0, 0, -w.retentionDays)
	prefix := w.prefix + "-"
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		date, err := time.Parse("20060102", strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".log"))
		if err != nil {
			continue
		}
		if date.Before(cutoff) {
			_ = os.Remove(filepath.Join(w.dir, name))
		}
	}
}

// NewLogger creates a logger writing to the console and a daily file in
// logDir, and installs it as the slog default.
func NewLogger(logDir string, opts Options) (*slog.Logger, *DailyWriter, error) {
	writer, err := NewDailyWriter(logDir, opts.RetentionDays)
	if err != nil {
		return nil, nil, err
	}
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	logger := slog.New(newHandler(io.MultiWriter(console, writer), opts)).With("service", serviceName)
	slog.SetDefault(logger)
	return logger, writer, nil
}

// NewConsoleLogger creates a logger writing only to w.
func NewConsoleLogger(w io.Writer, opts Options) *slog.Logger {
	return slog.New(newHandler(w, opts))
}

// ParseLevel maps a level name or integer onto a slog.Level.
func ParseLevel(value string, fallback slog.Level) slog.Level {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "":
		return fallback
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if i, err := strconv.Atoi(value); err == nil {
		return slog.Level(i)
	}
	return fallback
}

func newHandler(w io.Writer, opts Options) slog.Handler {
	level := opts.Level
	if level == "" {
		level = os.Getenv(envLogLevel)
	}
	format := opts.Format
	if format == "" {
		format = os.Getenv(envLogFormat)
	}
	options := &slog.HandlerOptions{Level: ParseLevel(level, slog.LevelInfo)}
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		return slog.NewJSONHandler(w, options)
	}
	return slog.NewTextHandler(w, options)
}
