package metrics

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Metrics interface {
	IncrementCounter(name string)
	IncrementCounterWithLabels(name string, labels map[string]string)
	RecordDuration(name string, duration time.Duration)
	RecordGauge(name string, value float64)
}

// Counter names shared by the fetchers and the aggregator.
const (
	CacheHit        = "cache_hit"
	CacheMiss       = "cache_miss"
	UpstreamCall    = "upstream_call"
	UpstreamFailure = "upstream_failure"
	MoviesDropped   = "movies_dropped"
	ListMovies      = "list_movies"
)

// Simple in-memory metrics implementation
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]*int64
	gauges   map[string]*int64 // Store as int64
}

func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: make(map[string]*int64),
		gauges:   make(map[string]*int64),
	}
}

func (m *InMemoryMetrics) IncrementCounter(name string) {
	atomic.AddInt64(m.counter(name), 1)
}

// IncrementCounterWithLabels folds sorted labels into the key, e.g.
// cache_hit{kind=flag}.
func (m *InMemoryMetrics) IncrementCounterWithLabels(name string, labels map[string]string) {
	m.IncrementCounter(labeledName(name, labels))
}

func (m *InMemoryMetrics) RecordDuration(name string, duration time.Duration) {
	// Convert to milliseconds
	m.RecordGauge(name+"_duration_ms", float64(duration.Nanoseconds())/1e6)
}

func (m *InMemoryMetrics) GetCounters() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]int64, len(m.counters))
	for name, counter := range m.counters {
		result[name] = atomic.LoadInt64(counter)
	}
	return result
}

func (m *InMemoryMetrics) RecordGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.gauges[name]; !exists {
		m.gauges[name] = new(int64)
	}
	// Convert float64 to int64 (losing precision but simpler)
	atomic.StoreInt64(m.gauges[name], int64(value))
}

func (m *InMemoryMetrics) GetGauges() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]float64, len(m.gauges))
	for name, gauge := range m.gauges {
		result[name] = float64(atomic.LoadInt64(gauge))
	}
	return result
}

func (m *InMemoryMetrics) counter(name string) *int64 {
	m.mu.RLock()
	c, exists := m.counters[name]
	m.mu.RUnlock()
	if exists {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, exists = m.counters[name]; !exists {
		c = new(int64)
		m.counters[name] = c
	}
	return c
}

func labeledName(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}

	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return name + "{" + strings.Join(pairs, ",") + "}"
}

// Noop discards everything.
type Noop struct{}

func (Noop) IncrementCounter(string)                             {}
func (Noop) IncrementCounterWithLabels(string, map[string]string) {}
func (Noop) RecordDuration(string, time.Duration)                {}
func (Noop) RecordGauge(string, float64)                         {}
