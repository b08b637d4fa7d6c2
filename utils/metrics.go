package utils

import (
	"sync"
	"time"
)

// OperationStats holds the counters of one facade operation.
type OperationStats struct {
	Count          int64         `json:"count"`
	Failures       int64         `json:"failures"`
	TotalLatency   time.Duration `json:"-"`
	AverageLatency time.Duration `json:"average_latency"`
}

// Metrics holds in-process application metrics.
type Metrics struct {
	mu sync.RWMutex

	TotalRequests   int64
	FailedRequests  int64
	RequestLatency  time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time
	Operations      map[string]*OperationStats

	// card lifecycle, keyed by the status a card was created with or moved to
	CardsCreated      int64
	CardStatusChanges map[string]int64
	LastCardOperation time.Time

	ErrorCount    int64
	LastErrorTime time.Time
	ErrorTypes    map[string]int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics returns the process-wide metrics.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = NewMetrics()
	})
	return metrics
}

// NewMetrics returns empty metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Operations:        make(map[string]*OperationStats),
		CardStatusChanges: make(map[string]int64),
		ErrorTypes:        make(map[string]int64),
	}
}

// RecordOperation records one facade call.
func (m *Metrics) RecordOperation(operation string, duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	m.RequestLatency += duration
	m.AverageLatency = m.RequestLatency / time.Duration(m.TotalRequests)
	m.LastRequestTime = time.Now()

	stats, ok := m.Operations[operation]
	if !ok {
		stats = &OperationStats{}
		m.Operations[operation] = stats
	}
	stats.Count++
	stats.TotalLatency += duration
	stats.AverageLatency = stats.TotalLatency / time.Duration(stats.Count)

	if err != nil {
		m.FailedRequests++
		stats.Failures++
		m.recordError(operation)
	}
}

// RecordCardOperation records a card creation or status change.
func (m *Metrics) RecordCardOperation(operation, status string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastCardOperation = time.Now()
	if err != nil {
		m.recordError("card_" + operation)
		return
	}

	if operation == "create" {
		m.CardsCreated++
	}
	m.CardStatusChanges[status]++
}

// RecordError counts a failure that is not tied to a facade call.
func (m *Metrics) RecordError(errorType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordError(errorType)
}

// recordError expects m.mu to be held.
func (m *Metrics) recordError(errorType string) {
	m.ErrorCount++
	m.LastErrorTime = time.Now()
	m.ErrorTypes[errorType]++
}

// GetMetricsSnapshot returns a copy of the current metrics.
func (m *Metrics) GetMetricsSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	operations := make(map[string]OperationStats, len(m.Operations))
	for name, stats := range m.Operations {
		operations[name] = *stats
	}
	cardStatuses := make(map[string]int64, len(m.CardStatusChanges))
	for status, n := range m.CardStatusChanges {
		cardStatuses[status] = n
	}
	errorTypes := make(map[string]int64, len(m.ErrorTypes))
	for errorType, n := range m.ErrorTypes {
		errorTypes[errorType] = n
	}

	return map[string]interface{}{
		"total_requests":      m.TotalRequests,
		"failed_requests":     m.FailedRequests,
		"average_latency":     m.AverageLatency.String(),
		"last_request_time":   m.LastRequestTime,
		"operations":          operations,
		"cards_created":       m.CardsCreated,
		"card_status_changes": cardStatuses,
		"last_card_operation": m.LastCardOperation,
		"error_count":         m.ErrorCount,
		"last_error_time":     m.LastErrorTime,
		"error_types":         errorTypes,
	}
}

// ResetMetrics clears every counter.
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests = 0
	m.FailedRequests = 0
	m.RequestLatency = 0
	m.AverageLatency = 0
	m.Operations = make(map[string]*OperationStats)
	m.CardsCreated = 0
	m.CardStatusChanges = make(map[string]int64)
	m.ErrorCount = 0
	m.ErrorTypes = make(map[string]int64)
}
