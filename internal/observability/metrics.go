package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts counts register and login outcomes.
	AuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogapp_auth_attempts_total",
		Help: "Total number of register and login attempts by outcome",
	}, []string{"operation", "outcome"})

	// TokenRejections counts bearer tokens refused by the auth middleware.
	TokenRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogapp_token_rejections_total",
		Help: "Total number of rejected bearer tokens by reason",
	}, []string{"reason"})

	// ArticleOperations counts article writes by operation and outcome.
	ArticleOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogapp_article_operations_total",
		Help: "Total number of article operations by outcome",
	}, []string{"operation", "outcome"})

	// CacheLookups counts user cache hits and misses.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogapp_cache_lookups_total",
		Help: "Total number of cache lookups by result",
	}, []string{"cache", "result"})

	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blogapp_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blogapp_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PasswordHashDuration records time spent in bcrypt, queueing included.
	PasswordHashDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "blogapp_password_hash_duration_seconds",
		Help:    "Time spent hashing or comparing passwords",
		Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"operation"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// Outcome maps an error to the label used by the outcome counters.
func Outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
