package scheduler

import (
	"errors"
	"time"
)

// DefaultFrameInterval is the frame period used by [Loop] (60Hz).
const DefaultFrameInterval = time.Second / 60

// ErrStopped is returned by [Loop.Run] when called on a stopped loop.
var ErrStopped = errors.New("scheduler stopped")

// CancelFunc cancels a pending frame or timer callback. Calling it after the
// callback ran, or more than once, is a no-op.
type CancelFunc func()

// Scheduler runs callbacks one at a time.
type Scheduler interface {
	// Post queues fn to run as soon as possible.
	Post(fn func())
	// RequestFrame queues fn to run on the next frame. Callbacks requested
	// while a frame is running run on the frame after.
	RequestFrame(fn func()) CancelFunc
	// After queues fn to run once d has elapsed.
	After(d time.Duration, fn func()) CancelFunc
}
