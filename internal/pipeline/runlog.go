package pipeline

import (
	"fmt"
	"strings"
)

// RunLog accumulates the newline-delimited human-readable trace of one sync
// run. It is owned by a single run and is not safe for concurrent use; the
// pipeline is sequential throughout.
type RunLog struct {
	b strings.Builder
}

func NewRunLog() *RunLog { return &RunLog{} }

// Printf appends one line to the trace.
func (l *RunLog) Printf(format string, args ...any) {
	fmt.Fprintf(&l.b, format, args...)
	l.b.WriteByte('\n')
}

func (l *RunLog) String() string { return l.b.String() }
