package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Global collector instance for singleton pattern
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// Remote repository metrics
	RepositoryOps      *prometheus.CounterVec
	RepositoryDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Business metrics
	RecipesCreated prometheus.Counter
	RecipesDeleted prometheus.Counter
	MigrationRuns  *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	// Use singleton pattern to avoid duplicate registration in tests
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	repositoryOps := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repository_operations_total",
			Help:      "Total number of remote repository operations",
		},
		[]string{"operation", "status"},
	)

	repositoryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "repository_operation_duration_seconds",
			Help:      "Remote repository operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of recipe cache hits",
		},
	)

	cacheMisses := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of recipe cache misses",
		},
	)

	recipesCreated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipes_created_total",
			Help:      "Total number of recipes created",
		},
	)

	recipesDeleted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipes_deleted_total",
			Help:      "Total number of recipes deleted",
		},
	)

	migrationRuns := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migration_runs_total",
			Help:      "Total number of legacy migration attempts by outcome",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(
		repositoryOps,
		repositoryDuration,
		cacheHits,
		cacheMisses,
		recipesCreated,
		recipesDeleted,
		migrationRuns,
	)

	globalCollector = &Collector{
		registry:           registry,
		RepositoryOps:      repositoryOps,
		RepositoryDuration: repositoryDuration,
		CacheHits:          cacheHits,
		CacheMisses:        cacheMisses,
		RecipesCreated:     recipesCreated,
		RecipesDeleted:     recipesDeleted,
		MigrationRuns:      migrationRuns,
	}

	return globalCollector
}

// ObserveRepositoryOp records one remote repository call
func (c *Collector) ObserveRepositoryOp(operation, status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.RepositoryOps.WithLabelValues(operation, status).Inc()
	c.RepositoryDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordCacheHit increments the cache hit counter
func (c *Collector) RecordCacheHit() {
	if c != nil {
		c.CacheHits.Inc()
	}
}

// RecordCacheMiss increments the cache miss counter
func (c *Collector) RecordCacheMiss() {
	if c != nil {
		c.CacheMisses.Inc()
	}
}

// RecordMigrationRun records one migration attempt outcome
func (c *Collector) RecordMigrationRun(outcome string) {
	if c != nil {
		c.MigrationRuns.WithLabelValues(outcome).Inc()
	}
}

// Handler returns the HTTP handler serving this collector's registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
