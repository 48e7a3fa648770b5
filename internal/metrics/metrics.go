package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	EntriesStaged   prometheus.Counter
	RemindersSent   prometheus.Counter
	RemindersFailed prometheus.Counter
	SendLatency     prometheus.Histogram
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EntriesStaged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queue_entries_staged_total",
			Help: "Total number of queue entries written by population runs.",
		}),
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Total number of successfully delivered reminders.",
		}),
		RemindersFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminders_failed_total",
			Help: "Total number of reminders whose delivery failed.",
		}),
		SendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reminder_send_seconds",
			Help:    "Per-entry latency from claim to channel ack.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.EntriesStaged,
		m.RemindersSent,
		m.RemindersFailed,
		m.SendLatency,
	)

	return m
}

// PopulatorHook returns the staging callback expected by job.NewPopulator.
func (m *Metrics) PopulatorHook() func(count int) {
	return func(count int) {
		m.EntriesStaged.Add(float64(count))
	}
}

// DrainerHooks returns the metric callbacks expected by job.DrainerHooks.
// Centralises the prometheus observation calls so the drainer stays
// import-free.
func (m *Metrics) DrainerHooks() (onSent func(time.Duration), onFailed func()) {
	onSent = func(latency time.Duration) {
		m.RemindersSent.Inc()
		m.SendLatency.Observe(latency.Seconds())
	}
	onFailed = func() {
		m.RemindersFailed.Inc()
	}
	return
}
