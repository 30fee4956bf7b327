// Package metrics counts protocol activity with Prometheus collectors on a
// private registry and exports them as a node-exporter textfile.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "goalkeeper"

// Metrics is safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	commands        *prometheus.CounterVec
	logins          *prometheus.CounterVec
	sessionActive   prometheus.Gauge
	remindersSent   prometheus.Counter
	remindersAcked  prometheus.Counter
	remindersFailed prometheus.Counter
	corrupt         prometheus.Counter
	storeErrors     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Client messages handled, by command.",
		}, []string{"command"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts, by result.",
		}, []string{"result"}),
		sessionActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_active",
			Help:      "1 while a user is logged in.",
		}),
		remindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_sent_total",
			Help:      "Reminders written to the mailbox.",
		}),
		remindersAcked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_acked_total",
			Help:      "Reminders acknowledged by the client.",
		}),
		remindersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_failed_total",
			Help:      "Reminders abandoned after the acknowledgement timeout.",
		}),
		corrupt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corrupt_messages_total",
			Help:      "Mailbox contents that could not be decoded.",
		}),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Credential or goal store failures.",
		}),
	}

	m.registry.MustRegister(
		m.commands, m.logins, m.sessionActive,
		m.remindersSent, m.remindersAcked, m.remindersFailed,
		m.corrupt, m.storeErrors,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Command(name string) { m.commands.WithLabelValues(name).Inc() }

// Login records a login attempt; result is "ok", "denied" or "error".
func (m *Metrics) Login(result string) { m.logins.WithLabelValues(result).Inc() }

func (m *Metrics) SessionActive(active bool) {
	if active {
		m.sessionActive.Set(1)
		return
	}
	m.sessionActive.Set(0)
}

func (m *Metrics) ReminderSent()   { m.remindersSent.Inc() }
func (m *Metrics) ReminderAcked()  { m.remindersAcked.Inc() }
func (m *Metrics) ReminderFailed() { m.remindersFailed.Inc() }
func (m *Metrics) CorruptMessage() { m.corrupt.Inc() }
func (m *Metrics) StoreError()     { m.storeErrors.Inc() }

// WriteTextfile writes the current values to path in the Prometheus text
// format. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
