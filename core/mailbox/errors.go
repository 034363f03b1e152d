package mailbox

import "errors"

var (
	// ErrQueueFull matches every *QueueFullError.
	ErrQueueFull = errors.New("mailbox queue is full")
	// ErrWorkerGone is returned once the worker has exited. It is terminal
	// for every handle of that mailbox.
	ErrWorkerGone = errors.New("mailbox worker is gone")
	// ErrClientClosed is returned by calls on a handle after Close.
	ErrClientClosed = errors.New("mailbox client is closed")
	// ErrInvalidCapacity is returned by Launch for a negative capacity.
	ErrInvalidCapacity = errors.New("mailbox capacity must not be negative")
	// ErrStorePanic wraps a panic recovered while the worker ran a command.
	ErrStorePanic = errors.New("store panicked")
)

// QueueFullError reports a rejected submission and hands the input back
// unchanged.
type QueueFullError[T any] struct {
	Input T
}

func (e *QueueFullError[T]) Error() string { return ErrQueueFull.Error() }

func (e *QueueFullError[T]) Is(target error) bool { return target == ErrQueueFull }
