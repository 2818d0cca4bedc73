// Package stdlogging implements sklogimpl.Logger, writing glog-style lines
// to an io.Writer (stderr by default).
package stdlogging

import (
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/openlawlibrary/stelae-sub000/go/sklog/sklogimpl"
)

var severityPrefix = map[sklogimpl.Severity]byte{
	sklogimpl.Debug:   'D',
	sklogimpl.Info:    'I',
	sklogimpl.Warning: 'W',
	sklogimpl.Error:   'E',
	sklogimpl.Fatal:   'F',
}

type logger struct {
	mu sync.Mutex
	w  io.Writer
}

// New returns a Logger that writes to w.
func New(w io.Writer) sklogimpl.Logger {
	return &logger{w: w}
}

func (l *logger) Log(depth int, severity sklogimpl.Severity, format string, args ...interface{}) {
	msg := format
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	} else if len(args) > 0 {
		msg = fmt.Sprint(args...)
	}

	file, line := callerLocation(depth)
	prefix, ok := severityPrefix[severity]
	if !ok {
		prefix = '?'
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%c%s %s:%d] %s\n", prefix, time.Now().UTC().Format("0102 15:04:05.000000"), file, line, msg)
}

func callerLocation(depth int) (string, int) {
	_, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		return "???", 0
	}
	return filepath.Base(file), line
}
