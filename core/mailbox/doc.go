// Package mailbox serializes all access to a ticket store through a single
// worker goroutine fed by a bounded queue.
//
// The worker owns the store exclusively. Callers never touch it; they hold a
// [Client] which turns each method call into a command, tries to enqueue it
// without blocking, and then waits for the worker's answer on a reply channel
// created for that one call.
//
// # Launching
//
//	c, err := mailbox.Launch(64)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	id, err := c.Insert(draft)
//	t, ok, err := c.Get(id)
//
// Use [LaunchWithOptions] to supply a context, logger, metrics or a custom
// store factory.
//
// # Backpressure
//
// The queue holds at most Capacity commands. When it is full, Insert and Get
// fail immediately with a [*QueueFullError] that matches [ErrQueueFull] and
// carries the rejected input back to the caller:
//
//	id, err := c.Insert(draft)
//	var full *mailbox.QueueFullError[ticket.Draft]
//	if errors.As(err, &full) {
//	    // retry full.Input later, shed it, or back off
//	}
//
// A capacity of 0 is a rendezvous: a command is only accepted while the
// worker is parked waiting for one.
//
// # Shutdown
//
// There is no stop command. Every handle returned by [Launch] or
// [Client.Clone] counts as a producer; once the last one is closed the queue
// is closed, the worker drains what is left and exits, and [Client.Done] is
// closed. Handles that become unreachable without being closed are released
// by the garbage collector. Cancelling [Options.Context] stops the worker
// early; calls waiting on it then fail with [ErrWorkerGone] instead of
// blocking forever.
package mailbox
