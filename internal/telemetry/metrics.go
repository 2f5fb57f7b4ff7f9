package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	taskExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "appo_task_executions_total",
		Help: "Total task executions by task type and outcome code",
	}, []string{"task_type", "code"})

	taskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "appo_task_duration_seconds",
		Help:    "Task execution duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"task_type"})

	janitorDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "appo_janitor_deleted_total",
		Help: "Completed app rule tasks removed by the janitor",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "appo_api_http_requests_total",
		Help: "Total HTTP requests handled by appo-api",
	}, []string{"method", "status"})
)

// ObserveTask записывает результат и длительность выполнения шага.
func ObserveTask(taskType, code string, d time.Duration) {
	taskExecutions.WithLabelValues(taskType, code).Inc()
	taskDuration.WithLabelValues(taskType).Observe(d.Seconds())
}

// ObserveJanitor учитывает удалённые janitor'ом записи.
func ObserveJanitor(deleted int64) {
	janitorDeleted.Add(float64(deleted))
}

// ObserveHTTP учитывает обработанный HTTP запрос.
func ObserveHTTP(method, status string) {
	httpRequests.WithLabelValues(method, status).Inc()
}
