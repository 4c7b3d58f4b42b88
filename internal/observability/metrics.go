package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WorkflowOperations counts workflow operations by name and outcome code.
	WorkflowOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kenhavate_workflow_operations_total",
		Help: "Total number of workflow operations by operation and outcome",
	}, []string{"operation", "outcome"})

	// SideEffectFailures counts notification and audit deliveries that failed.
	SideEffectFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kenhavate_side_effect_failures_total",
		Help: "Total number of failed fire-and-forget side effects by channel",
	}, []string{"channel"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kenhavate_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// TransactionLatency records store transaction latency in seconds.
	TransactionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kenhavate_store_transaction_seconds",
		Help:    "Store transaction latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
)

// RecordOperation increments the workflow counter; outcome is "ok" or an error code.
func RecordOperation(operation, outcome string) {
	WorkflowOperations.WithLabelValues(operation, outcome).Inc()
}

// ObserveTransaction records how long a store transaction took.
func ObserveTransaction(start time.Time, err error) {
	outcome := "commit"
	if err != nil {
		outcome = "rollback"
	}
	TransactionLatency.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
