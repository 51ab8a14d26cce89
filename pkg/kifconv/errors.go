package kifconv

import (
	"errors"
	"fmt"
)

var (
	ErrUnreadableInput      = errors.New("unreadable input")
	ErrNoMoveBody           = errors.New("line has no move body")
	ErrMalformedMoveBody    = errors.New("unconvertible move")
	ErrUnknownCoordinate    = errors.New("unknown coordinate")
	ErrUnknownPiece         = errors.New("unknown piece")
	ErrMissingRepeatContext = errors.New("same-square move without previous destination")
	ErrEmptyResult          = errors.New("no moves converted")
	ErrNotPosition          = errors.New("converted file does not start with position")
)

// LineError records a failure isolated to one input line.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v: %s", e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
