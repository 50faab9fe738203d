// Package logging prints the leveled, colored status lines used by the xrag
// commands ([INFO], [OK], [WARN], [ERROR], [DEBUG]).
//
// Colors come from fatih/color and are dropped automatically when the
// output is not a terminal or NO_COLOR is set. A nil *Logger is valid and
// discards everything, so library code can take one unconditionally.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

var (
	infoTag    = color.New(color.FgBlue).SprintFunc()
	successTag = color.New(color.FgGreen).SprintFunc()
	warnTag    = color.New(color.Bold, color.FgYellow).SprintFunc()
	errorTag   = color.New(color.FgRed).SprintFunc()
	debugTag   = color.New(color.FgMagenta).SprintFunc()
)

// Logger writes one line per call.
type Logger struct {
	mu      *sync.Mutex
	out     io.Writer
	verbose bool
	runID   string
}

// New returns a logger writing to out (os.Stderr when nil). Debugf lines
// are only printed when verbose is set.
func New(out io.Writer, verbose bool) *Logger {
	if out == nil {
		out = os.Stderr
	}
	return &Logger{mu: &sync.Mutex{}, out: out, verbose: verbose}
}

// WithRunID returns a logger that prefixes every line with the first eight
// characters of id. The copy shares the writer and its lock.
func (l *Logger) WithRunID(id string) *Logger {
	if l == nil {
		return nil
	}
	c := *l
	c.runID = id
	return &c
}

// RunID returns the id set by WithRunID.
func (l *Logger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

// Verbose reports whether debug lines are printed.
func (l *Logger) Verbose() bool { return l != nil && l.verbose }

func (l *Logger) Infof(format string, args ...any) {
	l.print(infoTag("[INFO]"), format, args)
}

func (l *Logger) Successf(format string, args ...any) {
	l.print(successTag("[OK]"), format, args)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.print(warnTag("[WARN]"), format, args)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.print(errorTag("[ERROR]"), format, args)
}

func (l *Logger) Debugf(format string, args ...any) {
	if !l.Verbose() {
		return
	}
	l.print(debugTag("[DEBUG]"), format, args)
}

func (l *Logger) print(tag, format string, args []any) {
	if l == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.runID != "" {
		id := l.runID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(l.out, "%s %s %s\n", tag, id, msg)
		return
	}
	fmt.Fprintf(l.out, "%s %s\n", tag, msg)
}
