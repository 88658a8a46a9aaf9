// Package metrics defines the Prometheus instruments for the wallet core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EntriesRecorded counts ledger entries by kind ("income" or "expense").
	EntriesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "famwallet_ledger_entries_total",
		Help: "Number of ledger entries recorded.",
	}, []string{"kind"})

	// CodesIssued counts opened linking sessions.
	CodesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "famwallet_link_codes_issued_total",
		Help: "Number of linking codes issued.",
	})

	// MergesCompleted counts successful wallet merges.
	MergesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "famwallet_merges_completed_total",
		Help: "Number of completed wallet merges.",
	})

	// RemindersSent counts delivered reminder messages by kind.
	RemindersSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "famwallet_reminders_sent_total",
		Help: "Number of reminder messages sent.",
	}, []string{"kind"})
)
