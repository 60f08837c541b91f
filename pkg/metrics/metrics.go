package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 排课操作结果
const (
	ResultOK          = "ok"
	ResultNotFound    = "not_found"
	ResultReferential = "referential"
	ResultValidation  = "validation"
	ResultConflict    = "conflict"
	ResultStore       = "store"
)

var (
	scheduleOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_operations_total",
		Help: "Schedule mutation and query operations by operation and result",
	}, []string{"operation", "result"})

	scheduleConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduling_conflicts_total",
		Help: "Rejected schedule writes by conflict dimension",
	}, []string{"dimension"})

	conflictCheckLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduling_conflict_check_seconds",
		Help:    "Latency of the scoped conflict check including store reads",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
	})

	httpRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ObserveScheduleOperation 记录一次排课操作
func ObserveScheduleOperation(operation, result string) {
	scheduleOperations.WithLabelValues(operation, result).Inc()
}

// ObserveConflict 记录一次冲突拒绝
func ObserveConflict(dimension string) {
	scheduleConflicts.WithLabelValues(dimension).Inc()
}

// ObserveConflictCheck 记录冲突检测耗时（秒）
func ObserveConflictCheck(seconds float64) {
	conflictCheckLatency.Observe(seconds)
}

// ObserveHTTPRequest 记录一次 HTTP 请求耗时（秒）
func ObserveHTTPRequest(method, route, status string, seconds float64) {
	httpRequests.WithLabelValues(method, route, status).Observe(seconds)
}
