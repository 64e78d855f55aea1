package pikodb

import (
	"log/slog"
	"runtime"

	"github.com/hupe1980/pikodb/hnsw"
	"github.com/hupe1980/pikodb/index"
	"github.com/hupe1980/pikodb/resource"
)

type options struct {
	logger             *Logger
	metricsCollector   MetricsCollector
	overfetchFactor    int
	indexFactory       index.Factory
	strictConfig       bool
	strictLoad         bool
	rebuildConcurrency int
	resources          *resource.Controller
}

// Option configures a Client.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := pikodb.NewJSONLogger(slog.LevelInfo)
//	client := pikodb.InMemory(pikodb.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &pikodb.BasicMetricsCollector{}
//	client := pikodb.InMemory(pikodb.WithMetricsCollector(metrics))
//	// ... use client ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithOverfetchFactor sets the multiplier applied to limit when a query
// carries filters. Values below 1 are ignored.
func WithOverfetchFactor(factor int) Option {
	return func(o *options) {
		if factor >= 1 {
			o.overfetchFactor = factor
		}
	}
}

// WithIndexFactory swaps the approximate index implementation.
// The default is hnsw.Factory; flat.Factory gives exact search.
func WithIndexFactory(f index.Factory) Option {
	return func(o *options) {
		if f != nil {
			o.indexFactory = f
		}
	}
}

// WithStrictConfig makes CreateCollection and GetOrCreateCollection reject
// a config that differs from the one an existing collection was created
// with. By default the stored config wins and the drift is logged.
func WithStrictConfig() Option {
	return func(o *options) {
		o.strictConfig = true
	}
}

// WithStrictLoad makes Persistent fail when the adapter has no snapshot yet.
// By default a missing snapshot starts an empty store.
func WithStrictLoad() Option {
	return func(o *options) {
		o.strictLoad = true
	}
}

// WithRebuildConcurrency bounds the number of collections whose indexes are
// rebuilt in parallel on startup. Defaults to GOMAXPROCS.
func WithRebuildConcurrency(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.rebuildConcurrency = n
		}
	}
}

// WithResourceController limits concurrent queries and snapshot IO.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:             NoopLogger(),
		metricsCollector:   NoopMetricsCollector{},
		overfetchFactor:    DefaultOverfetchFactor,
		indexFactory:       hnsw.Factory,
		rebuildConcurrency: runtime.GOMAXPROCS(0),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	return o
}
