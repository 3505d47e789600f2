package obf

import (
	"errors"
	"fmt"
	"strings"
)

// OBF decode errors.
var (
	ErrTruncatedData      = errors.New("truncated OBF data")
	ErrOutOfRange         = errors.New("OBF offset out of range")
	ErrInvalidFormat      = errors.New("invalid OBF format")
	ErrMalformedPrimitive = errors.New("malformed OBF primitive")
)

// PathError records where in the node tree a decode failure happened.
// Levels that were not reached are -1.
type PathError struct {
	Node      int
	Group     int
	Primitive int
	Err       error
}

func (e *PathError) Error() string {
	var parts []string
	if e.Node >= 0 {
		parts = append(parts, fmt.Sprintf("node %d", e.Node))
	}
	if e.Group >= 0 {
		parts = append(parts, fmt.Sprintf("group %d", e.Group))
	}
	if e.Primitive >= 0 {
		parts = append(parts, fmt.Sprintf("primitive %d", e.Primitive))
	}
	if len(parts) == 0 {
		return e.Err.Error()
	}
	return strings.Join(parts, " ") + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Key returns the identity triple of the failing element.
func (e *PathError) Key() Key {
	return Key{Node: e.Node, Group: e.Group, Primitive: e.Primitive}
}

// atPrimitive fills in the primitive level of err, creating a PathError if needed.
func atPrimitive(err error, idx int) error {
	return &PathError{Node: -1, Group: -1, Primitive: idx, Err: err}
}

func atGroup(err error, idx int) error {
	var pe *PathError
	if errors.As(err, &pe) && pe.Group < 0 {
		pe.Group = idx
		return pe
	}
	return &PathError{Node: -1, Group: idx, Primitive: -1, Err: err}
}

func atNode(err error, idx int) error {
	var pe *PathError
	if errors.As(err, &pe) && pe.Node < 0 {
		pe.Node = idx
		return pe
	}
	return &PathError{Node: idx, Group: -1, Primitive: -1, Err: err}
}
