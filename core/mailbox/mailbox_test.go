package mailbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/ticketbox/core/store"
	"github.com/codewandler/ticketbox/core/ticket"
)

func newTestClient(t *testing.T, opt Options) *Client {
	t.Helper()
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.DiscardHandler)
	}
	c, err := LaunchWithOptions(opt)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func draft(n int) ticket.Draft {
	return ticket.Draft{
		Title:       ticket.Title(fmt.Sprintf("ticket %d", n)),
		Description: ticket.Description(fmt.Sprintf("description %d", n)),
	}
}

func waitDone(t *testing.T, c *Client) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

// gateStore blocks every Insert until release is closed.
type gateStore struct {
	*store.MemStore
	entered chan struct{}
	release chan struct{}
}

func newGateStore() *gateStore {
	return &gateStore{
		MemStore: store.NewMemStore(),
		entered:  make(chan struct{}, 64),
		release:  make(chan struct{}),
	}
}

func (g *gateStore) Insert(d ticket.Draft) ticket.ID {
	g.entered <- struct{}{}
	<-g.release
	return g.MemStore.Insert(d)
}

type panicStore struct{ *store.MemStore }

func (p panicStore) Insert(d ticket.Draft) ticket.ID {
	if d.Title == "boom" {
		panic("kaboom")
	}
	return p.MemStore.Insert(d)
}

func TestMailbox_insert_and_get(t *testing.T) {
	c := newTestClient(t, Options{Capacity: 1})

	id, err := c.Insert(draft(1))
	require.NoError(t, err)
	require.Equal(t, ticket.ID(1), id)

	tk, ok, err := c.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ticket.FromDraft(1, draft(1)), tk)

	_, ok, err = c.Get(2)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMailbox_back_to_back_from_one_handle(t *testing.T) {
	c := newTestClient(t, Options{Capacity: 1})

	// the first command is dequeued before its reply is sent, so the slot
	// is free again by the time the second call enqueues
	for i := 1; i <= 10; i++ {
		id, err := c.Insert(draft(i))
		require.NoError(t, err)
		require.Equal(t, ticket.ID(i), id)
	}
}

func TestMailbox_rendezvous(t *testing.T) {
	c := newTestClient(t, Options{Capacity: 0})
	require.Equal(t, 0, c.Capacity())

	var (
		id  ticket.ID
		err error
	)
	require.Eventually(t, func() bool {
		id, err = c.Insert(draft(1))
		return !errors.Is(err, ErrQueueFull)
	}, 2*time.Second, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, ticket.ID(1), id)
}

func TestMailbox_invalid_capacity(t *testing.T) {
	_, err := Launch(-1)
	require.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestMailbox_invalid_draft(t *testing.T) {
	c := newTestClient(t, Options{Capacity: 1})

	_, err := c.Insert(ticket.Draft{Title: "", Description: "x"})
	require.ErrorIs(t, err, ticket.ErrTitleEmpty)
}

func TestMailbox_concurrent_inserts(t *testing.T) {
	const (
		callers = 16
		perCall = 50
	)
	c := newTestClient(t, Options{Capacity: 8})

	var (
		mu  sync.Mutex
		ids = make(map[ticket.ID]ticket.Draft)
		wg  sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		h, err := c.Clone()
		require.NoError(t, err)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer h.Close()
			for j := 0; j < perCall; j++ {
				d := draft(i*perCall + j)
				for {
					id, err := h.Insert(d)
					var full *QueueFullError[ticket.Draft]
					if errors.As(err, &full) {
						d = full.Input
						runtime.Gosched()
						continue
					}
					if err != nil {
						t.Errorf("insert: %v", err)
						return
					}
					mu.Lock()
					_, dup := ids[id]
					ids[id] = d
					mu.Unlock()
					if dup {
						t.Errorf("duplicate id %d", id)
					}
					break
				}
			}
		}()
	}
	wg.Wait()

	require.Len(t, ids, callers*perCall)
	for i := 1; i <= callers*perCall; i++ {
		d, ok := ids[ticket.ID(i)]
		require.True(t, ok, "missing id %d", i)

		// read-your-write through a different handle
		tk, found, err := c.Get(ticket.ID(i))
		require.NoError(t, err)
		require.True(t, found)
		require.Equal(t, d.Title, tk.Title)
		require.Equal(t, d.Description, tk.Description)
	}
}

func TestMailbox_queue_full(t *testing.T) {
	const capacity = 2
	gs := newGateStore()
	c := newTestClient(t, Options{
		Capacity: capacity,
		NewStore: func() Store { return gs },
	})

	results := make(chan error, capacity+1)
	insert := func(n int) {
		go func() {
			_, err := c.Insert(draft(n))
			results <- err
		}()
	}

	// occupy the worker
	insert(0)
	select {
	case <-gs.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first command")
	}

	// fill the queue
	for i := 1; i <= capacity; i++ {
		insert(i)
	}
	require.Eventually(t, func() bool { return c.Len() == capacity }, 2*time.Second, time.Millisecond)

	rejected := draft(99)
	_, err := c.Insert(rejected)
	require.ErrorIs(t, err, ErrQueueFull)
	var full *QueueFullError[ticket.Draft]
	require.ErrorAs(t, err, &full)
	require.Equal(t, rejected, full.Input)

	_, _, err = c.Get(5)
	var fullGet *QueueFullError[ticket.ID]
	require.ErrorAs(t, err, &fullGet)
	require.Equal(t, ticket.ID(5), fullGet.Input)

	close(gs.release)
	for i := 0; i <= capacity; i++ {
		require.NoError(t, <-results)
	}
	require.Equal(t, 0, c.Len())
}

func TestMailbox_store_panic(t *testing.T) {
	var (
		mu        sync.Mutex
		recovered []any
	)
	c := newTestClient(t, Options{
		Capacity: 1,
		NewStore: func() Store { return panicStore{store.NewMemStore()} },
		OnPanic: func(r any, _ []byte, _ any) {
			mu.Lock()
			recovered = append(recovered, r)
			mu.Unlock()
		},
	})

	_, err := c.Insert(ticket.Draft{Title: "boom", Description: "goes off"})
	require.ErrorIs(t, err, ErrStorePanic)
	require.ErrorContains(t, err, "kaboom")

	// worker is still serving
	id, err := c.Insert(draft(1))
	require.NoError(t, err)
	require.Equal(t, ticket.ID(1), id)

	mu.Lock()
	require.Equal(t, []any{"kaboom"}, recovered)
	mu.Unlock()
}

func TestMailbox_close_stops_worker(t *testing.T) {
	c, err := LaunchWithOptions(Options{Capacity: 4, Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)

	clone, err := c.Clone()
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.Insert(draft(1))
	require.ErrorIs(t, err, ErrClientClosed)
	_, err = c.Clone()
	require.ErrorIs(t, err, ErrClientClosed)

	// the clone keeps the worker alive
	select {
	case <-c.Done():
		t.Fatal("worker stopped while a handle was still open")
	default:
	}
	id, err := clone.Insert(draft(1))
	require.NoError(t, err)
	require.Equal(t, ticket.ID(1), id)

	require.NoError(t, clone.Close())
	waitDone(t, clone)
}

func TestMailbox_close_drains_queue(t *testing.T) {
	gs := newGateStore()
	c, err := LaunchWithOptions(Options{
		Capacity: 2,
		Logger:   slog.New(slog.DiscardHandler),
		NewStore: func() Store { return gs },
	})
	require.NoError(t, err)

	h, err := c.Clone()
	require.NoError(t, err)

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := h.Insert(draft(i))
			results <- err
		}()
	}
	require.Eventually(t, func() bool { return len(gs.entered)+c.Len() == 2 }, 2*time.Second, time.Millisecond)

	require.NoError(t, c.Close())
	require.NoError(t, h.Close())
	close(gs.release)

	require.NoError(t, <-results)
	require.NoError(t, <-results)
	waitDone(t, c)
}

func TestMailbox_dropped_handle_stops_worker(t *testing.T) {
	done := func() <-chan struct{} {
		c, err := LaunchWithOptions(Options{Capacity: 1, Logger: slog.New(slog.DiscardHandler)})
		require.NoError(t, err)
		_, err = c.Insert(draft(1))
		require.NoError(t, err)
		return c.Done()
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

func TestMailbox_context_cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	gs := newGateStore()
	c := newTestClient(t, Options{
		Capacity: 2,
		Context:  ctx,
		NewStore: func() Store { return gs },
	})

	first := make(chan error, 1)
	go func() {
		_, err := c.Insert(draft(1))
		first <- err
	}()
	<-gs.entered

	queued := make(chan error, 1)
	go func() {
		_, err := c.Insert(draft(2))
		queued <- err
	}()
	require.Eventually(t, func() bool { return c.Len() == 1 }, 2*time.Second, time.Millisecond)

	cancel()
	close(gs.release)

	// the in-flight command still gets its reply
	require.NoError(t, <-first)
	// the queued one is never served and must not hang
	select {
	case err := <-queued:
		require.ErrorIs(t, err, ErrWorkerGone)
	case <-time.After(2 * time.Second):
		t.Fatal("queued caller is still blocked")
	}
	waitDone(t, c)

	_, err := c.Insert(draft(3))
	require.ErrorIs(t, err, ErrWorkerGone)
	_, _, err = c.Get(1)
	require.ErrorIs(t, err, ErrWorkerGone)
}

func TestQueueFullError(t *testing.T) {
	var err error = &QueueFullError[int]{Input: 3}
	require.ErrorIs(t, err, ErrQueueFull)
	require.NotErrorIs(t, err, ErrWorkerGone)
	require.Equal(t, "mailbox queue is full", err.Error())

	wrapped := fmt.Errorf("submit: %w", err)
	var full *QueueFullError[int]
	require.ErrorAs(t, wrapped, &full)
	require.Equal(t, 3, full.Input)
}
