package compositor

import (
	"errors"
	"fmt"
)

var (
	// ErrPassOrder is returned for a chain that does not start with exactly
	// one base render followed by effects in bloom, film grain order.
	ErrPassOrder = errors.New("invalid pass order")
	// ErrInvalidSize is returned for non-positive buffer sizes.
	ErrInvalidSize = errors.New("invalid buffer size")
)

// ResizeApplyError reports a resize that could not be applied. The
// compositor keeps rendering at the previous size.
type ResizeApplyError struct {
	Width, Height         int
	PrevWidth, PrevHeight int
	Err                   error
}

func (e *ResizeApplyError) Error() string {
	return fmt.Sprintf("resize %dx%d (kept %dx%d): %v", e.Width, e.Height, e.PrevWidth, e.PrevHeight, e.Err)
}

func (e *ResizeApplyError) Unwrap() error { return e.Err }
