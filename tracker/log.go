package tracker

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogWriters holds the io.Writers for each logging stream
type LogWriters struct {
	// Ops receives actionable warnings such as failed assignments
	Ops io.Writer
	// Diag receives day to day diagnostics such as skipped stale ids
	Diag io.Writer
	// Trace receives per frame and per track telemetry
	Trace io.Writer
}

// logStreams are the loggers behind Opsf, Diagf and Tracef, a nil entry
// is a disabled stream
type logStreams struct {
	ops   *logrus.Entry
	diag  *logrus.Entry
	trace *logrus.Entry
}

var (
	logMu   sync.RWMutex
	streams logStreams
)

// SetLogWriters configures all three logging streams at once.  Pass nil for
// any writer to disable that stream.  All streams are disabled by default.
func SetLogWriters(w LogWriters) {
	logMu.Lock()
	defer logMu.Unlock()

	streams = logStreams{
		ops:   newStream("ops", w.Ops, logrus.WarnLevel),
		diag:  newStream("diag", w.Diag, logrus.InfoLevel),
		trace: newStream("trace", w.Trace, logrus.DebugLevel),
	}
}

func newStream(name string, w io.Writer, level logrus.Level) *logrus.Entry {
	if w == nil {
		return nil
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return l.WithFields(logrus.Fields{"pkg": "tracker", "stream": name})
}

// Opsf logs a warning to the ops stream
func Opsf(format string, args ...interface{}) {
	logMu.RLock()
	e := streams.ops
	logMu.RUnlock()
	if e != nil {
		e.Warnf(format, args...)
	}
}

// Diagf logs to the diag stream
func Diagf(format string, args ...interface{}) {
	logMu.RLock()
	e := streams.diag
	logMu.RUnlock()
	if e != nil {
		e.Infof(format, args...)
	}
}

// Tracef logs to the trace stream
func Tracef(format string, args ...interface{}) {
	logMu.RLock()
	e := streams.trace
	logMu.RUnlock()
	if e != nil {
		e.Debugf(format, args...)
	}
}
