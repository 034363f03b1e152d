package mailbox

import (
	"errors"
	"sync"
)

var errFull = errors.New("full")

// queue is the bounded request channel shared by all handles of a mailbox.
//
// Senders hold the read lock across their non-blocking send and the last
// release holds the write lock while closing the channel, so a send never
// hits a closed channel.
type queue struct {
	mu     sync.RWMutex
	refs   int
	closed bool

	commands chan command
	// done is closed by the worker when it exits.
	done chan struct{}

	workerID string
	metrics  Metrics
}

func newQueue(capacity int, workerID string, m Metrics) *queue {
	return &queue{
		refs:     1,
		commands: make(chan command, capacity),
		done:     make(chan struct{}),
		workerID: workerID,
		metrics:  m,
	}
}

func (q *queue) acquire() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClientClosed
	}
	q.refs++
	q.metrics.ClientsOpen(q.workerID, q.refs)
	return nil
}

// release drops one producer reference. The last one closes the channel,
// which lets the worker drain and stop.
func (q *queue) release() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.refs--
	q.metrics.ClientsOpen(q.workerID, q.refs)
	if q.refs == 0 {
		q.closed = true
		close(q.commands)
	}
}

func (q *queue) trySend(cmd command) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClientClosed
	}

	select {
	case <-q.done:
		return ErrWorkerGone
	default:
	}

	select {
	case q.commands <- cmd:
		q.metrics.MailboxDepth(q.workerID, len(q.commands))
		return nil
	default:
		return errFull
	}
}
