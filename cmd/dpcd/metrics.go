// metrics.go - In-process metrics for the ops endpoint.
package main

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Metric is one exported measurement.
type Metric struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// MetricsCollector accumulates counters and gauges for the daemon:
// transactions verified, accepted and rejected, ledger size, gossip
// traffic.
type MetricsCollector struct {
	mu       sync.RWMutex
	counters map[string]int64
	gauges   map[string]float64
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
	}
}

// IncrementCounter adds one to a counter.
func (mc *MetricsCollector) IncrementCounter(name string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.counters[name]++
}

// SetGauge sets a gauge value.
func (mc *MetricsCollector) SetGauge(name string, value float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.gauges[name] = value
}

// Snapshot returns all metrics sorted by name.
func (mc *MetricsCollector) Snapshot() []Metric {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	now := time.Now()
	out := make([]Metric, 0, len(mc.counters)+len(mc.gauges))
	for name, v := range mc.counters {
		out = append(out, Metric{Name: name, Type: "counter", Value: float64(v), Timestamp: now})
	}
	for name, v := range mc.gauges {
		out = append(out, Metric{Name: name, Type: "gauge", Value: v, Timestamp: now})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Summary renders the metrics in a plain text exposition format.
func (mc *MetricsCollector) Summary() string {
	var s string
	for _, m := range mc.Snapshot() {
		s += fmt.Sprintf("%s %g\n", m.Name, m.Value)
	}
	return s
}
