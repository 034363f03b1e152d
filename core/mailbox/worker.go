package mailbox

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/codewandler/ticketbox/core/ticket"
)

// Store is what the worker needs from the ticket store. Implementations are
// only ever called from the worker goroutine and need no locking.
type Store interface {
	Insert(draft ticket.Draft) ticket.ID
	Get(id ticket.ID) (ticket.Ticket, bool)
}

type worker struct {
	id      string
	ctx     context.Context
	log     *slog.Logger
	q       *queue
	store   Store
	metrics Metrics
	onPanic OnPanic
}

func (w *worker) run() {
	defer close(w.q.done)

	w.log.Debug("worker started", slog.Int("capacity", cap(w.q.commands)))

	for {
		// a cancelled context wins over queued commands
		if w.ctx.Err() != nil {
			w.stop("context done", slog.Any("error", w.ctx.Err()))
			return
		}

		select {
		case <-w.ctx.Done():
			w.stop("context done", slog.Any("error", w.ctx.Err()))
			return
		case cmd, ok := <-w.q.commands:
			if !ok {
				w.stop("all clients closed")
				return
			}
			w.handle(cmd)
			w.metrics.MailboxDepth(w.id, len(w.q.commands))
		}
	}
}

func (w *worker) stop(reason string, attrs ...any) {
	w.store = nil
	w.log.Debug("worker stopped", append([]any{slog.String("reason", reason)}, attrs...)...)
}

func (w *worker) handle(cmd command) {
	kind := cmd.kind()
	defer w.metrics.CommandDuration(kind).ObserveDuration()

	var err error
	switch c := cmd.(type) {
	case insertCommand:
		var id ticket.ID
		err = w.safely(cmd, func() { id = w.store.Insert(c.draft) })
		deliver(w, kind, c.reply, insertReply{id: id, err: err})

	case getCommand:
		var (
			t     ticket.Ticket
			found bool
		)
		err = w.safely(cmd, func() { t, found = w.store.Get(c.id) })
		deliver(w, kind, c.reply, getReply{ticket: t, found: found, err: err})

	default:
		err = fmt.Errorf("unknown command %T", cmd)
		w.log.Error("unknown command", slog.String("type", fmt.Sprintf("%T", cmd)))
	}

	w.metrics.CommandProcessed(kind, err == nil)
}

// safely runs f and turns a panic into an error so one bad command cannot
// take the worker down.
func (w *worker) safely(cmd command, f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.metrics.CommandPanic(cmd.kind())
			w.onPanic(r, debug.Stack(), cmd)
			err = fmt.Errorf("%w: %v", ErrStorePanic, r)
		}
	}()
	f()
	return nil
}

// deliver hands r to the waiting caller. The store has already been
// updated at this point, so a reply nobody can take is dropped rather
// than undone.
func deliver[R any](w *worker, kind string, reply chan<- R, r R) {
	select {
	case reply <- r:
	default:
		w.metrics.ReplyDropped(kind)
		w.log.Warn("dropping reply", slog.String("command", kind))
	}
}
