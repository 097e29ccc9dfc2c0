// Package logger builds the JSON line logger shared by the HTTP layer,
// migrations, tracing bootstrap and services.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// locationFormatter renders timestamps in the clinic's configured time zone.
type locationFormatter struct {
	loc   *time.Location
	inner *logrus.JSONFormatter
}

func (f *locationFormatter) Format(e *logrus.Entry) ([]byte, error) {
	e.Time = e.Time.In(f.loc)
	return f.inner.Format(e)
}

// New returns a logger writing one JSON object per line with ts/level/msg keys.
// A nil writer means stdout; an unknown level falls back to info.
func New(level string, loc *time.Location, w io.Writer) *logrus.Logger {
	if w == nil {
		w = os.Stdout
	}
	if loc == nil {
		loc = time.UTC
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl)
	l.SetFormatter(&locationFormatter{
		loc: loc,
		inner: &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "ts",
			},
		},
	})
	return l
}

// Event logs a structured lifecycle event. Entries whose status is "error"
// are logged at error level, everything else at info.
func Event(l logrus.FieldLogger, msg string, fields logrus.Fields) {
	entry := l.WithFields(fields)
	if fields["status"] == "error" {
		entry.Error(msg)
		return
	}
	entry.Info(msg)
}
