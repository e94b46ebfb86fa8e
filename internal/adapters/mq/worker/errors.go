package worker

import "errors"

// ErrShuttingDown marks a job dropped because the pool is stopping.
var ErrShuttingDown = errors.New("worker pool shutting down")
