package pikodb

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems;
// package prommetrics provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordUpsert is called after each batch upsert.
	// count is the number of points submitted, applied the number stored
	// before the first failure.
	RecordUpsert(count, applied int, duration time.Duration)

	// RecordSearch is called after each query.
	// limit is the number of points requested, results the number returned.
	RecordSearch(limit, results int, duration time.Duration, err error)

	// RecordPersist is called after each snapshot save.
	RecordPersist(points int, duration time.Duration, err error)

	// RecordLoad is called after the startup snapshot load and rebuild.
	RecordLoad(collections, points int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordUpsert(int, int, time.Duration)        {}
func (NoopMetricsCollector) RecordSearch(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordPersist(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordLoad(int, int, time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	UpsertCount      atomic.Int64
	UpsertPoints     atomic.Int64
	UpsertFailed     atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchResults    atomic.Int64
	SearchTotalNanos atomic.Int64
	PersistCount     atomic.Int64
	PersistErrors    atomic.Int64
	PersistNanos     atomic.Int64
	LoadCount        atomic.Int64
	LoadErrors       atomic.Int64
	LoadedPoints     atomic.Int64
}

// RecordUpsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpsert(count, applied int, _ time.Duration) {
	b.UpsertCount.Add(1)
	b.UpsertPoints.Add(int64(applied))
	if applied < count {
		b.UpsertFailed.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_, results int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
		return
	}
	b.SearchResults.Add(int64(results))
}

// RecordPersist implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPersist(_ int, duration time.Duration, err error) {
	b.PersistCount.Add(1)
	b.PersistNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PersistErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_, points int, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadedPoints.Add(int64(points))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		UpsertCount:     b.UpsertCount.Load(),
		UpsertPoints:    b.UpsertPoints.Load(),
		UpsertFailed:    b.UpsertFailed.Load(),
		SearchCount:     b.SearchCount.Load(),
		SearchErrors:    b.SearchErrors.Load(),
		SearchResults:   b.SearchResults.Load(),
		SearchAvgNanos:  avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		PersistCount:    b.PersistCount.Load(),
		PersistErrors:   b.PersistErrors.Load(),
		PersistAvgNanos: avg(b.PersistNanos.Load(), b.PersistCount.Load()),
		LoadCount:       b.LoadCount.Load(),
		LoadErrors:      b.LoadErrors.Load(),
		LoadedPoints:    b.LoadedPoints.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	UpsertCount     int64
	UpsertPoints    int64
	UpsertFailed    int64
	SearchCount     int64
	SearchErrors    int64
	SearchResults   int64
	SearchAvgNanos  int64
	PersistCount    int64
	PersistErrors   int64
	PersistAvgNanos int64
	LoadCount       int64
	LoadErrors      int64
	LoadedPoints    int64
}
