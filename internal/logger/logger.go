package logger

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger emits one JSON line per entry with the service name, hostname
// and an action tag alongside the call-site fields.
type Logger struct {
	entry *logrus.Entry
}

func New(service string) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	host, _ := os.Hostname()
	return &Logger{entry: l.WithFields(logrus.Fields{
		"service":  service,
		"hostname": host,
	})}
}

func (l *Logger) with(fields map[string]any) *logrus.Entry {
	if len(fields) == 0 {
		return l.entry
	}
	return l.entry.WithFields(logrus.Fields(fields))
}

func (l *Logger) Info(action string, fields map[string]any) {
	l.with(fields).WithField("action", action).Info(action)
}

func (l *Logger) Debug(action string, fields map[string]any) {
	l.with(fields).WithField("action", action).Debug(action)
}

func (l *Logger) Warn(action string, err error, fields map[string]any) {
	e := l.with(fields).WithField("action", action)
	if err != nil {
		e = e.WithError(err)
	}
	e.Warn(action)
}

func (l *Logger) Error(action string, err error, fields map[string]any) {
	e := l.with(fields).WithField("action", action)
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(action)
}
