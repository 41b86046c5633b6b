package power

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Power operation metrics
	powerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hive_power_operation_duration_seconds",
			Help:    "Time taken by power operations end to end",
			Buckets: []float64{0.5, 1, 5, 10, 30, 60, 300, 600},
		},
		[]string{"operation"}, // up, down, restart, status
	)

	powerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hive_power_operations_total",
			Help: "Total number of power operations",
		},
		[]string{"operation", "status"}, // status: success or error
	)

	wakePacketsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hive_power_wake_packets_total",
			Help: "Total number of Wake-on-LAN magic packets sent",
		},
	)

	probesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hive_power_probes_total",
			Help: "Total number of node reachability probes",
		},
		[]string{"result"}, // reachable or unreachable
	)
)

// observeOperation records the end-to-end outcome of one operation.
func observeOperation(op Operation, seconds float64, ok bool) {
	status := "success"
	if !ok {
		status = "error"
	}
	powerOperationsTotal.WithLabelValues(string(op), status).Inc()
	powerOperationDuration.WithLabelValues(string(op)).Observe(seconds)
}

// observeProbe records a single reachability probe result.
func observeProbe(reachable bool) {
	result := "reachable"
	if !reachable {
		result = "unreachable"
	}
	probesTotal.WithLabelValues(result).Inc()
}
