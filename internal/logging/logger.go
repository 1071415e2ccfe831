// Package logging configures the structured logrus logger shared by all components.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	Level  string // trace, debug, info, warn, error
	Format string // json or text
	Output string // stderr (default), stdout or a file path
	// MaxAgeDays enables lumberjack rotation for file outputs when > 0.
	MaxAgeDays int
	// MaxSizeMB is the rotation size for file outputs. Defaults to 100.
	MaxSizeMB int
}

// New creates a configured logger.
func New(opts Options) (*logrus.Logger, error) {
	l := logrus.New()

	level := strings.ToLower(strings.TrimSpace(opts.Level))
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level '%s'", opts.Level)
	}
	l.SetLevel(lvl)
	l.SetReportCaller(true)

	callerPrettyfier := func(f *runtime.Frame) (string, string) {
		return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
	}

	switch opts.Format {
	case "json", "":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
			CallerPrettyfier: callerPrettyfier,
		})
	case "text":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: callerPrettyfier,
		})
	default:
		return nil, fmt.Errorf("invalid log format '%s'", opts.Format)
	}

	out, err := openOutput(opts)
	if err != nil {
		return nil, err
	}
	l.SetOutput(out)

	return l, nil
}

func openOutput(opts Options) (io.Writer, error) {
	switch opts.Output {
	case "stderr", "":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}

	if opts.MaxAgeDays > 0 {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 100
		}
		return &lumberjack.Logger{
			Filename: opts.Output,
			MaxAge:   opts.MaxAgeDays,
			MaxSize:  maxSize,
			Compress: true,
		}, nil
	}

	file, err := os.OpenFile(opts.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file '%s': %w", opts.Output, err)
	}
	return file, nil
}

// Component returns an entry tagged with the component name.
// A nil logger yields a discarding entry.
func Component(l *logrus.Logger, name string) *logrus.Entry {
	if l == nil {
		return Discard().WithField("component", name)
	}
	return l.WithField("component", name)
}

// Discard returns an entry that drops everything it receives.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// OrDiscard returns e, or a discarding entry when e is nil.
func OrDiscard(e *logrus.Entry) *logrus.Entry {
	if e == nil {
		return Discard()
	}
	return e
}
