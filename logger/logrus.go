package logger

import (
	"github.com/sirupsen/logrus"
)

// Logrus forwards Logger calls to a logrus entry, keeping any fields attached to it.
type Logrus struct {
	entry *logrus.Entry
}

func NewLogrus(l *logrus.Logger) *Logrus {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &Logrus{entry: logrus.NewEntry(l)}
}

// WithField returns a Logrus that adds key=value to every line.
func (l *Logrus) WithField(key string, value interface{}) *Logrus {
	return &Logrus{entry: l.entry.WithField(key, value)}
}

func (l *Logrus) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *Logrus) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *Logrus) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Configure sets level and formatter on l. format is "text" or "json".
func Configure(l *logrus.Logger, level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.SetLevel(lvl)
	switch format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
