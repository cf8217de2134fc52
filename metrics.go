package memory

import (
	"sync/atomic"
	"time"
)

// MetricsCollector observes Engine operations. Implement this to integrate
// with an external monitoring system.
type MetricsCollector interface {
	// RecordIngest is called after every ingest, successful or not.
	RecordIngest(d time.Duration, err error)

	// RecordSearch is called after every search, recording how many
	// candidates survived each funnel stage in addition to latency.
	RecordSearch(d time.Duration, stage1Survivors, stage2Survivors, results int, err error)

	// RecordDelete is called after every delete.
	RecordDelete(d time.Duration, err error)
}

// NoopMetricsCollector discards every observation.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIngest(time.Duration, error)                 {}
func (NoopMetricsCollector) RecordSearch(time.Duration, int, int, int, error)  {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)                 {}

// BasicMetricsCollector is a simple in-memory MetricsCollector, useful for
// debugging and smoke tests without wiring an external system.
type BasicMetricsCollector struct {
	IngestCount      atomic.Int64
	IngestErrors     atomic.Int64
	IngestTotalNanos atomic.Int64

	SearchCount            atomic.Int64
	SearchErrors           atomic.Int64
	SearchTotalNanos       atomic.Int64
	Stage1SurvivorsTotal   atomic.Int64
	Stage2SurvivorsTotal   atomic.Int64

	DeleteCount  atomic.Int64
	DeleteErrors atomic.Int64
}

func (b *BasicMetricsCollector) RecordIngest(d time.Duration, err error) {
	b.IngestCount.Add(1)
	b.IngestTotalNanos.Add(d.Nanoseconds())
	if err != nil {
		b.IngestErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordSearch(d time.Duration, stage1Survivors, stage2Survivors, results int, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(d.Nanoseconds())
	b.Stage1SurvivorsTotal.Add(int64(stage1Survivors))
	b.Stage2SurvivorsTotal.Add(int64(stage2Survivors))
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

func (b *BasicMetricsCollector) RecordDelete(d time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector's counters.
type BasicMetricsStats struct {
	IngestCount   int64
	IngestErrors  int64
	IngestAvgNanos int64

	SearchCount    int64
	SearchErrors   int64
	SearchAvgNanos int64

	DeleteCount  int64
	DeleteErrors int64
}

// GetStats returns a consistent-enough snapshot of the current counters.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		IngestCount:    b.IngestCount.Load(),
		IngestErrors:   b.IngestErrors.Load(),
		IngestAvgNanos: avg(b.IngestTotalNanos.Load(), b.IngestCount.Load()),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchAvgNanos: avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		DeleteCount:    b.DeleteCount.Load(),
		DeleteErrors:   b.DeleteErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}
