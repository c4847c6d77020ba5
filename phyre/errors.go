package phyre

import (
	"fmt"
)

type ErrorKind int

const (
	TruncatedHeader ErrorKind = iota + 1
	TruncatedPayload
	MissingClass
	InvalidClassId
	DegenerateGeometry
)

func (k ErrorKind) String() string {
	switch k {
	case TruncatedHeader:
		return "truncated header"
	case TruncatedPayload:
		return "truncated payload"
	case MissingClass:
		return "missing class"
	case InvalidClassId:
		return "invalid class id"
	case DegenerateGeometry:
		return "degenerate geometry"
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// FormatError describes a structural problem in a container. Segment is -1
// when the problem is not tied to a mesh segment.
type FormatError struct {
	Kind    ErrorKind
	Class   string
	Segment int
	Offset  int
	Msg     string
	Err     error
}

func (e *FormatError) Error() string {
	s := e.Kind.String()
	if e.Class != "" {
		s += fmt.Sprintf(" %q", e.Class)
	}
	if e.Segment >= 0 {
		s += fmt.Sprintf(" in segment %d", e.Segment)
	}
	if e.Offset > 0 {
		s += fmt.Sprintf(" at 0x%x", e.Offset)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Is matches on kind, and on class name when the target names one.
func (e *FormatError) Is(target error) bool {
	t, ok := target.(*FormatError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Class == "" || t.Class == e.Class)
}

var (
	ErrTruncatedHeader    = &FormatError{Kind: TruncatedHeader, Segment: -1}
	ErrTruncatedPayload   = &FormatError{Kind: TruncatedPayload, Segment: -1}
	ErrMissingClass       = &FormatError{Kind: MissingClass, Segment: -1}
	ErrInvalidClassId     = &FormatError{Kind: InvalidClassId, Segment: -1}
	ErrDegenerateGeometry = &FormatError{Kind: DegenerateGeometry, Segment: -1}
)

func NewError(kind ErrorKind, format string, a ...interface{}) *FormatError {
	return &FormatError{Kind: kind, Segment: -1, Msg: fmt.Sprintf(format, a...)}
}

func NewSegmentError(kind ErrorKind, segment int, format string, a ...interface{}) *FormatError {
	return &FormatError{Kind: kind, Segment: segment, Msg: fmt.Sprintf(format, a...)}
}

func NewMissingClassError(class string) *FormatError {
	return &FormatError{Kind: MissingClass, Class: class, Segment: -1}
}

// WithCause attaches the underlying read error.
func (e *FormatError) WithCause(err error) *FormatError {
	e.Err = err
	return e
}
