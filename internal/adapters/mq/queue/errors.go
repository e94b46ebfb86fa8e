package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrQueueFull   = errors.New("import queue is full")
	ErrQueueClosed = errors.New("import queue is closed")
)
