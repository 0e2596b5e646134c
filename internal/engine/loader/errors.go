package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is returned for a load index outside [0, slots).
	ErrIndexOutOfRange = errors.New("load index out of range")
	// ErrAlreadyRequested is returned when an index was requested before.
	ErrAlreadyRequested = errors.New("load index already requested")
	// ErrClosed is returned by RequestLoad after Close.
	ErrClosed = errors.New("loader closed")
	// ErrNoMeshes is returned when an asset decodes to no geometry.
	ErrNoMeshes = errors.New("asset has no meshes")
)

// AssetLoadError describes a failed load. The slot stays empty; it never
// affects other loads.
type AssetLoadError struct {
	Path  string
	Index int
	Err   error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("load asset %q (slot %d): %v", e.Path, e.Index, e.Err)
}

func (e *AssetLoadError) Unwrap() error { return e.Err }
