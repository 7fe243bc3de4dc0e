package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu                 sync.Mutex
	requestCount       map[string]int64
	errorCount         map[string]int64
	authorizationCount map[string]int64
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Requests       map[string]int64 `json:"requests"`
	Errors         map[string]int64 `json:"errors"`
	Authorizations map[string]int64 `json:"authorizations"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:       make(map[string]int64),
		errorCount:         make(map[string]int64),
		authorizationCount: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordAuthorization counts the outcome of one authorization check.
func (m *Metrics) RecordAuthorization(principal, outcome string) {
	if m == nil {
		return
	}
	key := principal + "|" + outcome
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authorizationCount[key]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Requests:       copyCounts(m.requestCount),
		Errors:         copyCounts(m.errorCount),
		Authorizations: copyCounts(m.authorizationCount),
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
