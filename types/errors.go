// errors.go defines the error values returned across rsframe.

// Package types contains the types shared by all rsframe packages.
package types

import (
	"fmt"
	"time"
)

// ErrNativeCall is a structured error yielded by a native primitive.
type ErrNativeCall struct {
	Function string
	Args     string
	Message  string
	Type     string
}

func (e ErrNativeCall) Error() string {
	return fmt.Sprintf("native call %s(%s) failed: %s (%s)", e.Function, e.Args, e.Message, e.Type)
}

type ErrTimeout struct {
	Timeout time.Duration
}

func (e ErrTimeout) Error() string {
	return fmt.Sprintf("frame did not arrive within %v", e.Timeout)
}

// ErrOutOfFrameResources means a processing block accepted a frame but
// published nothing.
type ErrOutOfFrameResources struct {
	Block string
}

func (e ErrOutOfFrameResources) Error() string {
	return fmt.Sprintf("processing block '%s' ran out of frame resources", e.Block)
}

// ErrAllocationFailed means the native allocator returned a null handle.
type ErrAllocationFailed struct {
	What string
}

func (e ErrAllocationFailed) Error() string {
	return fmt.Sprintf("unable to allocate %s: out of frame resources", e.What)
}

type ErrReleased struct{}

func (ErrReleased) Error() string {
	return "the frame is already released"
}

type ErrNullHandle struct{}

func (ErrNullHandle) Error() string {
	return "null frame handle"
}

type ErrNotComposite struct{}

func (ErrNotComposite) Error() string {
	return "the frame is not a composite frame"
}

type ErrIndexOutOfRange struct {
	Index int
	Count int
}

func (e ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("requested index %d is out of range [0, %d)", e.Index, e.Count)
}

type ErrUnexpectedFrameType struct {
	Expected string
	Actual   string
}

func (e ErrUnexpectedFrameType) Error() string {
	return fmt.Sprintf("expected a %s frame, but got %s", e.Expected, e.Actual)
}

type ErrNotStarted struct{}

func (ErrNotStarted) Error() string {
	return "the processing block is not started"
}

type ErrAlreadyStarted struct{}

func (ErrAlreadyStarted) Error() string {
	return "the processing block is already started"
}

type ErrClosed struct{}

func (ErrClosed) Error() string {
	return "already closed"
}
