package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// #region logger
// New builds a logrus logger writing to stderr. level is a logrus level name ("debug", "info",
// "warn", ...); unknown values fall back to info. format "json" selects the JSON formatter.
func New(level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// Discard returns a logger that drops everything. Used when a component is built without one.
func Discard() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
// #endregion logger
