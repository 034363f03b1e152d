package mailbox

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/codewandler/ticketbox/core/ticket"
)

// Client is a handle to a running mailbox. A Client is safe for concurrent
// use; use Clone to hand out further handles that keep the worker alive
// independently.
type Client struct {
	q        *queue
	capacity int
	log      *slog.Logger
	metrics  Metrics

	closed  atomic.Bool
	cleanup runtime.Cleanup
}

func newClient(q *queue, capacity int, log *slog.Logger, m Metrics) *Client {
	c := &Client{
		q:        q,
		capacity: capacity,
		log:      log,
		metrics:  m,
	}
	c.cleanup = runtime.AddCleanup(c, func(q *queue) { q.release() }, q)
	return c
}

// Insert stores draft and returns the id the store assigned to it.
//
// An invalid draft is rejected before it reaches the queue. When the queue
// is full the returned error is a *QueueFullError[ticket.Draft] holding draft.
func (c *Client) Insert(draft ticket.Draft) (ticket.ID, error) {
	if err := draft.Validate(); err != nil {
		return 0, fmt.Errorf("invalid draft: %w", err)
	}

	reply := make(chan insertReply, 1)
	if err := c.submit(insertCommand{draft: draft, reply: reply}); err != nil {
		return 0, rejection(err, draft)
	}

	r, err := await(c.q.done, reply)
	if err != nil {
		return 0, err
	}
	return r.id, r.err
}

// Get looks up the ticket stored under id. A miss is reported as ok=false
// with a nil error. When the queue is full the returned error is a
// *QueueFullError[ticket.ID] holding id.
func (c *Client) Get(id ticket.ID) (t ticket.Ticket, ok bool, err error) {
	reply := make(chan getReply, 1)
	if err = c.submit(getCommand{id: id, reply: reply}); err != nil {
		return t, false, rejection(err, id)
	}

	r, err := await(c.q.done, reply)
	if err != nil {
		return t, false, err
	}
	return r.ticket, r.found, r.err
}

// Clone returns a new handle on the same mailbox. The worker keeps running
// until every handle has been closed.
func (c *Client) Clone() (*Client, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if err := c.q.acquire(); err != nil {
		return nil, err
	}
	return newClient(c.q, c.capacity, c.log, c.metrics), nil
}

// Close releases this handle. Closing the last handle stops the worker once
// it has drained the queue. Close is idempotent.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cleanup.Stop()
	c.q.release()
	return nil
}

// Capacity returns the queue capacity the mailbox was launched with.
func (c *Client) Capacity() int { return c.capacity }

// Len returns the number of commands currently waiting in the queue.
func (c *Client) Len() int { return len(c.q.commands) }

func (c *Client) WorkerID() string { return c.q.workerID }

// Done is closed when the worker has exited.
func (c *Client) Done() <-chan struct{} { return c.q.done }

func (c *Client) submit(cmd command) error {
	err := ErrClientClosed
	if !c.closed.Load() {
		err = c.q.trySend(cmd)
	}
	if err == nil {
		return nil
	}

	reason := "queue_full"
	switch {
	case errors.Is(err, ErrWorkerGone):
		reason = "worker_gone"
	case errors.Is(err, ErrClientClosed):
		reason = "client_closed"
	}
	c.metrics.CommandRejected(cmd.kind(), reason)
	c.log.Debug("command rejected", slog.String("command", cmd.kind()), slog.String("reason", reason))
	return err
}

func rejection[T any](err error, input T) error {
	if err == errFull {
		return &QueueFullError[T]{Input: input}
	}
	return err
}

// await blocks until the worker answers or exits. A reply that was sent
// right before the exit is still delivered.
func await[R any](done <-chan struct{}, reply <-chan R) (r R, err error) {
	select {
	case r = <-reply:
		return r, nil
	case <-done:
		select {
		case r = <-reply:
			return r, nil
		default:
			return r, ErrWorkerGone
		}
	}
}
