package recovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTriggers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recovery_refresh_triggers_total",
			Help: "Total number of recovery refresh triggers, by source.",
		},
		[]string{"trigger"}, // initial, interval, manual, event, history
	)

	refreshCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recovery_refresh_cycles_total",
			Help: "Total number of recovery refresh cycles, by result.",
		},
		[]string{"result"}, // success, failure, skipped, superseded
	)

	executions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recovery_executions_total",
			Help: "Total number of recovery executions, by result.",
		},
		[]string{"result"}, // processed, reverted, failed
	)
)

func incrementRefreshTrigger(trigger string) {
	refreshTriggers.WithLabelValues(trigger).Inc()
}

func incrementRefreshCycle(result string) {
	refreshCycles.WithLabelValues(result).Inc()
}

// IncrementExecution counts a finished recovery execution attempt.
func IncrementExecution(result string) {
	executions.WithLabelValues(result).Inc()
}
