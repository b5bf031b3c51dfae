// Package memcore implements the segmented symbolic memory core of a
// symbolic virtual machine: segment-tagged values, allocation descriptors,
// and a lazily-flushed byte store shared across forked execution states.
package memcore

import (
	"errors"
	"fmt"
)

// Standard widths.
const (
	WidthBool = 1
	Width8    = 8
	Width16   = 16
	Width32   = 32
	Width64   = 64
)

var (
	ErrSolverTimeout       = errors.New("memcore: solver timeout")
	ErrSolverCanceled      = errors.New("memcore: solver canceled")
	ErrSolverResourceLimit = errors.New("memcore: solver resource limit")
	ErrSolverUnknown       = errors.New("memcore: solver unknown error")

	// ErrReadOnly indicates a write was attempted against a read-only object.
	ErrReadOnly = errors.New("memcore: write to read-only object")
)

// assert panics if condition is false. Reserved for contract violations the
// caller must have already prevented: an out-of-bounds byte index or a
// segment/offset width mismatch is a programming error, not a path-condition
// outcome, so it panics here rather than returning an error.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}
