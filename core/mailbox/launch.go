package mailbox

import (
	"context"
	"log/slog"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/ticketbox/core/store"
)

type (
	// OnPanic is called on the worker goroutine with the value recovered
	// from a panicking command.
	OnPanic func(recovered any, stack []byte, cmd any)

	Options struct {
		// Capacity bounds the request queue. 0 means every command must
		// meet the worker in a rendezvous.
		Capacity int
		// Context stops the worker when cancelled. Defaults to
		// context.Background().
		Context  context.Context
		Logger   *slog.Logger
		Metrics  Metrics
		OnPanic  OnPanic
		NewStore func() Store
		// WorkerID labels logs and metrics. Generated when empty.
		WorkerID string
	}
)

// Launch starts a worker over an empty in-memory store with the given
// queue capacity and returns the first handle to it.
func Launch(capacity int) (*Client, error) {
	return LaunchWithOptions(Options{Capacity: capacity})
}

func LaunchWithOptions(opt Options) (*Client, error) {
	if opt.Capacity < 0 {
		return nil, ErrInvalidCapacity
	}
	if opt.Context == nil {
		opt.Context = context.Background()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Metrics == nil {
		opt.Metrics = NopMetrics()
	}
	if opt.NewStore == nil {
		opt.NewStore = func() Store { return store.NewMemStore() }
	}
	if opt.WorkerID == "" {
		opt.WorkerID = "worker-" + gonanoid.Must(6)
	}

	log := opt.Logger.With(slog.String("worker", opt.WorkerID))

	if opt.OnPanic == nil {
		opt.OnPanic = func(recovered any, stack []byte, cmd any) {
			log.Error("command panicked", slog.Any("recovered", recovered), slog.String("stack", string(stack)), slog.Any("cmd", cmd))
		}
	}

	q := newQueue(opt.Capacity, opt.WorkerID, opt.Metrics)
	opt.Metrics.ClientsOpen(opt.WorkerID, 1)

	w := &worker{
		id:      opt.WorkerID,
		ctx:     opt.Context,
		log:     log,
		q:       q,
		store:   opt.NewStore(),
		metrics: opt.Metrics,
		onPanic: opt.OnPanic,
	}
	go w.run()

	return newClient(q, opt.Capacity, log, opt.Metrics), nil
}
