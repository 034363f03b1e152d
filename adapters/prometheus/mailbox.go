package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/ticketbox/core/mailbox"
	"github.com/codewandler/ticketbox/core/metrics"
)

type mailboxMetrics struct {
	commandDuration *prometheus.HistogramVec
	commandsTotal   *prometheus.CounterVec
	panicsTotal     *prometheus.CounterVec
	repliesDropped  *prometheus.CounterVec
	rejectedTotal   *prometheus.CounterVec
	mailboxDepth    *prometheus.GaugeVec
	clientsOpen     *prometheus.GaugeVec
}

// NewMailboxMetrics creates mailbox metrics and registers them with reg.
func NewMailboxMetrics(reg prometheus.Registerer) mailbox.Metrics {
	m := &mailboxMetrics{
		commandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ticketbox_command_duration_seconds",
			Help:    "Time the worker spent executing a command",
			Buckets: defaultBuckets,
		}, []string{"command"}),

		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketbox_commands_total",
			Help: "Total number of commands executed by the worker",
		}, []string{"command", "success"}),

		panicsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketbox_command_panics_total",
			Help: "Total number of recovered store panics",
		}, []string{"command"}),

		repliesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketbox_replies_dropped_total",
			Help: "Total number of replies no caller could take",
		}, []string{"command"}),

		rejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketbox_commands_rejected_total",
			Help: "Total number of commands refused at enqueue time",
		}, []string{"command", "reason"}),

		mailboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ticketbox_mailbox_depth",
			Help: "Current number of queued commands",
		}, []string{"worker_id"}),

		clientsOpen: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ticketbox_clients_open",
			Help: "Current number of open client handles",
		}, []string{"worker_id"}),
	}

	reg.MustRegister(
		m.commandDuration,
		m.commandsTotal,
		m.panicsTotal,
		m.repliesDropped,
		m.rejectedTotal,
		m.mailboxDepth,
		m.clientsOpen,
	)

	return m
}

func (m *mailboxMetrics) CommandDuration(kind string) metrics.Timer {
	return newTimer(m.commandDuration.WithLabelValues(kind))
}

func (m *mailboxMetrics) CommandProcessed(kind string, success bool) {
	m.commandsTotal.WithLabelValues(kind, boolToStr(success)).Inc()
}

func (m *mailboxMetrics) CommandPanic(kind string) {
	m.panicsTotal.WithLabelValues(kind).Inc()
}

func (m *mailboxMetrics) ReplyDropped(kind string) {
	m.repliesDropped.WithLabelValues(kind).Inc()
}

func (m *mailboxMetrics) CommandRejected(kind string, reason string) {
	m.rejectedTotal.WithLabelValues(kind, reason).Inc()
}

func (m *mailboxMetrics) MailboxDepth(workerID string, depth int) {
	m.mailboxDepth.WithLabelValues(workerID).Set(float64(depth))
}

func (m *mailboxMetrics) ClientsOpen(workerID string, count int) {
	m.clientsOpen.WithLabelValues(workerID).Set(float64(count))
}

var _ mailbox.Metrics = (*mailboxMetrics)(nil)
