package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/codewandler/ticketbox/core/mailbox"
	"github.com/codewandler/ticketbox/core/ticket"
)

type loadOptions struct {
	Capacity int
	Clients  int
	Inserts  int
	Backoff  time.Duration
}

type loadReport struct {
	Options   loadOptions
	Accepted  int64
	QueueFull int64
	Verified  int
	Elapsed   time.Duration
}

func (r loadReport) throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Accepted) / r.Elapsed.Seconds()
}

func newLoadtestCommand() *cobra.Command {
	opts := loadOptions{}

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Hammer an in-process mailbox with concurrent inserts",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			report, err := runLoad(cmd.Context(), opts, log)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Capacity, "capacity", 16, "Mailbox queue capacity")
	cmd.Flags().IntVar(&opts.Clients, "clients", runtime.NumCPU()*4, "Number of concurrent client handles")
	cmd.Flags().IntVar(&opts.Inserts, "inserts", 1_000, "Inserts per client")
	cmd.Flags().DurationVar(&opts.Backoff, "backoff", 0, "Sleep after a full queue before retrying (0 yields instead)")
	return cmd
}

// runLoad inserts Clients*Inserts tickets through cloned handles, retrying
// every rejected draft, then reads every id back to check it was stored
// exactly once.
func runLoad(ctx context.Context, opts loadOptions, log *slog.Logger) (loadReport, error) {
	report := loadReport{Options: opts}
	if opts.Clients <= 0 || opts.Inserts <= 0 {
		return report, errors.New("clients and inserts must be positive")
	}

	client, err := mailbox.LaunchWithOptions(mailbox.Options{
		Capacity: opts.Capacity,
		Context:  ctx,
		Logger:   log,
	})
	if err != nil {
		return report, err
	}
	defer client.Close()

	var (
		accepted  atomic.Int64
		queueFull atomic.Int64
		wg        sync.WaitGroup
		errOnce   sync.Once
		firstErr  error
	)

	startAt := time.Now()
	for i := range opts.Clients {
		h, err := client.Clone()
		if err != nil {
			return report, err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer h.Close()
			for j := range opts.Inserts {
				d := ticket.Draft{
					Title:       ticket.Title("load " + strconv.Itoa(i)),
					Description: ticket.Description("insert " + strconv.Itoa(j)),
				}
				for {
					_, err := h.Insert(d)
					var full *mailbox.QueueFullError[ticket.Draft]
					if errors.As(err, &full) {
						queueFull.Add(1)
						d = full.Input
						if opts.Backoff > 0 {
							time.Sleep(opts.Backoff)
						} else {
							runtime.Gosched()
						}
						continue
					}
					if err != nil {
						errOnce.Do(func() { firstErr = fmt.Errorf("client %d: %w", i, err) })
						return
					}
					accepted.Add(1)
					break
				}
			}
		}()
	}
	wg.Wait()
	report.Elapsed = time.Since(startAt)
	report.Accepted = accepted.Load()
	report.QueueFull = queueFull.Load()

	if firstErr != nil {
		return report, firstErr
	}

	for id := ticket.ID(1); id <= ticket.ID(report.Accepted); id++ {
		_, ok, err := getWithRetry(client, id)
		if err != nil {
			return report, err
		}
		if !ok {
			return report, fmt.Errorf("ticket %s missing after load", id)
		}
		report.Verified++
	}
	_, ok, err := getWithRetry(client, ticket.ID(report.Accepted)+1)
	if err != nil {
		return report, err
	}
	if ok {
		return report, fmt.Errorf("unexpected ticket beyond %d accepted inserts", report.Accepted)
	}

	return report, nil
}

func getWithRetry(c *mailbox.Client, id ticket.ID) (ticket.Ticket, bool, error) {
	for {
		t, ok, err := c.Get(id)
		if errors.Is(err, mailbox.ErrQueueFull) {
			runtime.Gosched()
			continue
		}
		return t, ok, err
	}
}

func printReport(w io.Writer, r loadReport) {
	rows := [][]string{
		{"capacity", strconv.Itoa(r.Options.Capacity)},
		{"clients", strconv.Itoa(r.Options.Clients)},
		{"inserts per client", strconv.Itoa(r.Options.Inserts)},
		{"accepted", strconv.FormatInt(r.Accepted, 10)},
		{"queue full rejections", strconv.FormatInt(r.QueueFull, 10)},
		{"verified", strconv.Itoa(r.Verified)},
		{"elapsed", r.Elapsed.Round(time.Millisecond).String()},
		{"inserts/s", strconv.FormatFloat(r.throughput(), 'f', 0, 64)},
	}
	fmt.Fprintln(w, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
}
