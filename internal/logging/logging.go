// Package logging builds the process logger. Components receive a
// logrus.FieldLogger explicitly; there is no package-level logger.
package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a configured logger writing to out. Level accepts the
// usual logrus names ("debug", "info", ...); unknown values fall back to
// info. JSON output is meant for machine consumption, the text formatter
// for interactive runs.
func New(out io.Writer, level string, jsonFormat bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)

	if jsonFormat {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(strings.TrimSpace(strings.ToLower(level)))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	l.SetLevel(parsed)
	return l
}
