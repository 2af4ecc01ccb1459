package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu               sync.Mutex
	requestCount     map[string]int64
	errorCount       map[string]int64
	reportRuns       map[string]int64
	deliveries       map[string]int64
	lastRunDurations map[string]time.Duration
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Requests   map[string]int64 `json:"requests"`
	Errors     map[string]int64 `json:"errors"`
	ReportRuns map[string]int64 `json:"report_runs"`
	Deliveries map[string]int64 `json:"deliveries"`
	// LastRunMillis is keyed by tenant.
	LastRunMillis map[string]int64 `json:"last_run_millis"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:     make(map[string]int64),
		errorCount:       make(map[string]int64),
		reportRuns:       make(map[string]int64),
		deliveries:       make(map[string]int64),
		lastRunDurations: make(map[string]time.Duration),
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

// RecordReportRun counts a report generation for a tenant with its outcome.
func (m *Metrics) RecordReportRun(tenantID, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportRuns[tenantID+"|"+outcome]++
	m.lastRunDurations[tenantID] = duration
}

// RecordDelivery counts a report delivery attempt outcome per transport.
func (m *Metrics) RecordDelivery(transport, outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveries[transport+"|"+outcome]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		Requests:      copyCounts(m.requestCount),
		Errors:        copyCounts(m.errorCount),
		ReportRuns:    copyCounts(m.reportRuns),
		Deliveries:    copyCounts(m.deliveries),
		LastRunMillis: make(map[string]int64, len(m.lastRunDurations)),
	}
	for k, v := range m.lastRunDurations {
		snap.LastRunMillis[k] = v.Milliseconds()
	}
	return snap
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
