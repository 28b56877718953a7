package canopy

import (
	"errors"
	"fmt"
)

var (
	// ErrCapability is returned when an object that cannot be drawn (nil, or
	// missing the Drawable capabilities) is added to a Batch.
	ErrCapability = errors.New("object is not drawable")
	// ErrInvalidArgument is returned by setters and constructors that reject
	// their input. The receiver keeps its previous state.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDisposed is returned (or panicked with, for methods without an error
	// result) when a disposed drawable is used.
	ErrDisposed = errors.New("drawable is disposed")
	// ErrViewportDepth is returned when viewports nest deeper than
	// MaxViewportDepth, which only happens when a viewport is reachable from
	// its own batch.
	ErrViewportDepth = errors.New("viewport nesting too deep")
	// ErrNoGraphics is returned by constructors given a nil *Graphics.
	ErrNoGraphics = errors.New("no graphics context")
)

// mustLive panics with a wrapped ErrDisposed when r has been disposed.
func (r *Renderable) mustLive(op string) {
	if r.disposed {
		panic(fmt.Errorf("canopy: %s: %w", op, ErrDisposed))
	}
}
