package mailbox

import "github.com/codewandler/ticketbox/core/metrics"

// Metrics receives instrumentation events from a mailbox.
// All methods are thread-safe.
type Metrics interface {
	// Worker
	CommandDuration(kind string) metrics.Timer
	CommandProcessed(kind string, success bool)
	CommandPanic(kind string)
	ReplyDropped(kind string)

	// Client: reason is "queue_full", "worker_gone" or "client_closed"
	CommandRejected(kind string, reason string)

	// Queue
	MailboxDepth(workerID string, depth int)
	ClientsOpen(workerID string, count int)
}

type nopMetrics struct{}

func (nopMetrics) CommandDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) CommandProcessed(string, bool)        {}
func (nopMetrics) CommandPanic(string)                  {}
func (nopMetrics) ReplyDropped(string)                  {}
func (nopMetrics) CommandRejected(string, string)       {}
func (nopMetrics) MailboxDepth(string, int)             {}
func (nopMetrics) ClientsOpen(string, int)              {}

// NopMetrics returns a Metrics implementation that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }
