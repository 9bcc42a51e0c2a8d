// Package logging wraps logrus behind a small interface so that every
// package in the core takes a Logger collaborator instead of reaching for a
// global. This mirrors the way the teacher corpus keeps logging an injected
// concern rather than a singleton.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Level enumerates log severities, ordered least to most verbose.
type Level int

const (
	Error Level = iota
	Warn
	Info
	Debug
)

// Fields is a set of structured key-value pairs attached to a log entry.
type Fields map[string]interface{}

// Logger is the logging collaborator every core package depends on.
type Logger interface {
	Debug(fmt string, args ...interface{})
	Info(fmt string, args ...interface{})
	Warn(fmt string, args ...interface{})
	Error(fmt string, args ...interface{})
	WithFields(Fields) Logger
	GetLevel() Level
	SetLevel(Level)
}

// StandardLogger is the default logrus-backed Logger implementation.
type StandardLogger struct {
	entry *logrus.Entry
	level Level
}

// New returns a new StandardLogger writing JSON-formatted entries to stderr.
func New() *StandardLogger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.JSONFormatter{})
	return &StandardLogger{entry: logrus.NewEntry(l), level: Info}
}

func (l *StandardLogger) Debug(f string, a ...interface{}) { l.entry.Debugf(f, a...) }
func (l *StandardLogger) Info(f string, a ...interface{})  { l.entry.Infof(f, a...) }
func (l *StandardLogger) Warn(f string, a ...interface{})  { l.entry.Warnf(f, a...) }
func (l *StandardLogger) Error(f string, a ...interface{}) { l.entry.Errorf(f, a...) }

func (l *StandardLogger) WithFields(fields Fields) Logger {
	return &StandardLogger{entry: l.entry.WithFields(logrus.Fields(fields)), level: l.level}
}

func (l *StandardLogger) GetLevel() Level { return l.level }

func (l *StandardLogger) SetLevel(level Level) {
	l.level = level
	switch level {
	case Debug:
		l.entry.Logger.SetLevel(logrus.DebugLevel)
	case Info:
		l.entry.Logger.SetLevel(logrus.InfoLevel)
	case Warn:
		l.entry.Logger.SetLevel(logrus.WarnLevel)
	case Error:
		l.entry.Logger.SetLevel(logrus.ErrorLevel)
	}
}

// NoOpLogger discards everything; used in tests and as the executor's
// zero-value collaborator.
type NoOpLogger struct{}

func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (*NoOpLogger) Debug(string, ...interface{}) {}
func (*NoOpLogger) Info(string, ...interface{})  {}
func (*NoOpLogger) Warn(string, ...interface{})  {}
func (*NoOpLogger) Error(string, ...interface{}) {}
func (n *NoOpLogger) WithFields(Fields) Logger   { return n }
func (*NoOpLogger) GetLevel() Level              { return Error }
func (*NoOpLogger) SetLevel(Level)               {}
