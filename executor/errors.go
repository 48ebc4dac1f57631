package executor

import (
	"errors"
	"fmt"

	"github.com/carbocation/genowindow/window"
)

var (
	// ErrMisalignedAxisLength is returned, before any work is scheduled, when
	// an input array's variant axis does not match the plan.
	ErrMisalignedAxisLength = errors.New("array length does not match the variant axis")

	// ErrUnrefinedChunking is returned, before any work is scheduled, when an
	// input array has a chunk boundary that is not a cut point of the plan.
	ErrUnrefinedChunking = errors.New("array chunking is not refined by the plan")

	// ErrReductionFunction matches every *ReductionError.
	ErrReductionFunction = errors.New("reduction function failed")

	// ErrRecordShape is wrapped in a *ReductionError when a reduction returns
	// a record of the wrong width.
	ErrRecordShape = errors.New("reduction returned a record of the wrong width")
)

// ReductionError reports the window whose reduction failed.
type ReductionError struct {
	Index  int
	Window window.Window
	Err    error
}

func (e *ReductionError) Error() string {
	return fmt.Sprintf("reducing window %d (%s): %v", e.Index, e.Window, e.Err)
}

func (e *ReductionError) Unwrap() error {
	return e.Err
}

func (e *ReductionError) Is(target error) bool {
	return target == ErrReductionFunction
}
