package utils

import (
	"fmt"
	"io"
	"strings"
)

// Logger writes decoder traces. A nil *Logger discards everything,
// so decoders take one unconditionally.
type Logger struct {
	io.Writer
	depth int
}

func NewLogger(w io.Writer) *Logger {
	if w == nil {
		return nil
	}
	return &Logger{Writer: w}
}

// Sub returns a logger that indents its lines one level deeper.
func (l *Logger) Sub() *Logger {
	if l == nil {
		return nil
	}
	return &Logger{Writer: l.Writer, depth: l.depth + 1}
}

func (l *Logger) Println(a ...interface{}) {
	if l != nil {
		fmt.Fprint(l, strings.Repeat("  ", l.depth))
		fmt.Fprintln(l, a...)
	}
}

func (l *Logger) Printf(format string, a ...interface{}) {
	if l != nil {
		fmt.Fprintf(l, strings.Repeat("  ", l.depth)+format+"\n", a...)
	}
}
