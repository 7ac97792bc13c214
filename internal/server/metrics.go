package server

import (
	"sync/atomic"
	"time"

	"github.com/Brownie44l1/corehttp/internal/response"
)

// Metrics holds server runtime counters
type Metrics struct {
	RequestsTotal     atomic.Int64
	ActiveConnections atomic.Int64
	ErrorsTotal       atomic.Int64
	Errors4xx         atomic.Int64
	Errors5xx         atomic.Int64
	NotFound          atomic.Int64

	// Connections closed without a response (bad head, timeout, read error)
	Dropped atomic.Int64

	// Latency tracking (simplified - use histogram in production)
	TotalLatencyNs atomic.Int64
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordRequest records a completed request
func (m *Metrics) RecordRequest(code response.StatusCode, duration time.Duration) {
	m.RequestsTotal.Add(1)
	m.TotalLatencyNs.Add(duration.Nanoseconds())

	switch {
	case code == response.StatusNotFound:
		m.NotFound.Add(1)
		m.Errors4xx.Add(1)
	case code.IsClientError():
		m.Errors4xx.Add(1)
	case code >= 500:
		m.Errors5xx.Add(1)
		m.ErrorsTotal.Add(1)
	}
}

// RecordDropped records a connection closed without a response
func (m *Metrics) RecordDropped() {
	m.Dropped.Add(1)
}

// AverageLatency returns average request latency
func (m *Metrics) AverageLatency() time.Duration {
	totalReqs := m.RequestsTotal.Load()
	if totalReqs == 0 {
		return 0
	}

	avgNs := m.TotalLatencyNs.Load() / totalReqs
	return time.Duration(avgNs)
}

// MetricsSnapshot is a point-in-time copy of Metrics
type MetricsSnapshot struct {
	RequestsTotal     int64         `json:"requests_total"`
	ActiveConnections int64         `json:"active_connections"`
	ErrorsTotal       int64         `json:"errors_total"`
	Errors4xx         int64         `json:"errors_4xx"`
	Errors5xx         int64         `json:"errors_5xx"`
	NotFound          int64         `json:"not_found"`
	Dropped           int64         `json:"dropped"`
	AverageLatency    time.Duration `json:"average_latency_ns"`
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		RequestsTotal:     m.RequestsTotal.Load(),
		ActiveConnections: m.ActiveConnections.Load(),
		ErrorsTotal:       m.ErrorsTotal.Load(),
		Errors4xx:         m.Errors4xx.Load(),
		Errors5xx:         m.Errors5xx.Load(),
		NotFound:          m.NotFound.Load(),
		Dropped:           m.Dropped.Load(),
		AverageLatency:    m.AverageLatency(),
	}
}
