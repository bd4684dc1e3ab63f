package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// recordsAdded counts accepted production entries by outcome
	// ("created" or "merged").
	recordsAdded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "welder_records_added_total",
			Help: "Production entries accepted, by outcome.",
		},
		[]string{"outcome"},
	)

	// historyEntries counts appended history rows.
	historyEntries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "welder_history_entries_total",
			Help: "History entries appended to records.",
		},
	)

	// imports counts snapshot imports by mode and result.
	imports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "welder_imports_total",
			Help: "Snapshot imports, by mode and result.",
		},
		[]string{"mode", "result"},
	)
)

func init() {
	prometheus.MustRegister(recordsAdded, historyEntries, imports)
}
