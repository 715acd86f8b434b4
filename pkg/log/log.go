// Package log defines the logger carried through the engine. Call sites take
// the logger as their first argument rather than reaching for a global.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the leveled logger used throughout the engine.
type Logger interface {
	Tracef(format string, args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	WithField(key string, value any) Logger
}

type logger struct {
	entry *logrus.Entry
}

// New returns a logger writing human-readable output to stderr. The level is
// taken from the TOOLSCOUT_LOG_LEVEL environment variable, defaulting to info.
func New() Logger {
	return NewWithLevel(os.Getenv("TOOLSCOUT_LOG_LEVEL"))
}

// NewWithLevel returns a stderr logger at the given logrus level name. An
// empty or unknown name means info.
func NewWithLevel(levelName string) Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		level = logrus.InfoLevel
	}

	base.SetLevel(level)

	return &logger{entry: logrus.NewEntry(base)}
}

// Discard returns a logger that drops everything. Used by tests and by
// callers that pass no logger.
func Discard() Logger {
	base := logrus.New()
	base.SetOutput(io.Discard)

	return &logger{entry: logrus.NewEntry(base)}
}

func (l *logger) Tracef(format string, args ...any) { l.entry.Tracef(format, args...) }
func (l *logger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *logger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *logger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *logger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }

func (l *logger) WithField(key string, value any) Logger {
	return &logger{entry: l.entry.WithField(key, value)}
}
