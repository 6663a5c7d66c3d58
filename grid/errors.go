package grid

import (
	"errors"
	"fmt"

	"github.com/plus3/driftworks/gamedata"
)

var (
	ErrOutOfBounds           = errors.New("out of bounds")
	ErrTooFar                = errors.New("too far")
	ErrOccupied              = errors.New("occupied")
	ErrNeedsFloor            = errors.New("needs floor")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrNothingToRemove       = errors.New("nothing to remove")
	ErrUnknownBlock          = errors.New("unknown block")
)

// PlacementError reports a rejected build or remove. It unwraps to one of
// the sentinel errors above.
type PlacementError struct {
	Op    string
	Cell  Cell
	Block gamedata.Block
	Err   error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("%s %s at (%d,%d): %v", e.Op, e.Block, e.Cell.X, e.Cell.Y, e.Err)
}

func (e *PlacementError) Unwrap() error {
	return e.Err
}

// Reason is a short code for the failure, suitable for display.
func (e *PlacementError) Reason() string {
	return Reason(e.Err)
}

// Reason maps an error from this package to its reason code. Nil maps to
// "ok".
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, ErrTooFar):
		return "too_far"
	case errors.Is(err, ErrOccupied):
		return "occupied"
	case errors.Is(err, ErrNeedsFloor):
		return "needs_floor"
	case errors.Is(err, ErrInsufficientResources):
		return "insufficient_resources"
	case errors.Is(err, ErrNothingToRemove):
		return "nothing_to_remove"
	case errors.Is(err, ErrUnknownBlock):
		return "unknown_block"
	}
	return "error"
}
