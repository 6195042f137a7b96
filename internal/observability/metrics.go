package observability

import (
	"sort"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu       sync.Mutex
	started  time.Time
	requests map[requestKey]*requestTotals
	errors   map[errorKey]int64
}

type requestKey struct {
	route  string
	method string
	status int
}

type errorKey struct {
	route  string
	method string
	code   string
}

type requestTotals struct {
	count   int64
	latency time.Duration
}

// RouteStats aggregates the requests seen for one route, method and status.
type RouteStats struct {
	Route        string  `json:"route"`
	Method       string  `json:"method"`
	Status       int     `json:"status"`
	Count        int64   `json:"count"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// ErrorStats counts rendered errors per route and error code.
type ErrorStats struct {
	Route  string `json:"route"`
	Method string `json:"method"`
	Code   string `json:"code"`
	Count  int64  `json:"count"`
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	UptimeSeconds int64        `json:"uptime_seconds"`
	Requests      []RouteStats `json:"requests"`
	Errors        []ErrorStats `json:"errors"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		started:  time.Now(),
		requests: make(map[requestKey]*requestTotals),
		errors:   make(map[errorKey]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := requestKey{route: route, method: method, status: status}
	m.mu.Lock()
	defer m.mu.Unlock()
	totals, ok := m.requests[key]
	if !ok {
		totals = &requestTotals{}
		m.requests[key] = totals
	}
	totals.count++
	totals.latency += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[errorKey{route: route, method: method, code: code}]++
}

// Snapshot copies the counters, sorted by route then method.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{Requests: []RouteStats{}, Errors: []ErrorStats{}}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		UptimeSeconds: int64(time.Since(m.started).Seconds()),
		Requests:      make([]RouteStats, 0, len(m.requests)),
		Errors:        make([]ErrorStats, 0, len(m.errors)),
	}
	for key, totals := range m.requests {
		snap.Requests = append(snap.Requests, RouteStats{
			Route:        key.route,
			Method:       key.method,
			Status:       key.status,
			Count:        totals.count,
			AvgLatencyMs: float64(totals.latency.Microseconds()) / float64(totals.count) / 1000,
		})
	}
	for key, n := range m.errors {
		snap.Errors = append(snap.Errors, ErrorStats{Route: key.route, Method: key.method, Code: key.code, Count: n})
	}
	sort.Slice(snap.Requests, func(i, j int) bool {
		a, b := snap.Requests[i], snap.Requests[j]
		if a.Route != b.Route {
			return a.Route < b.Route
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		return a.Status < b.Status
	})
	sort.Slice(snap.Errors, func(i, j int) bool {
		a, b := snap.Errors[i], snap.Errors[j]
		if a.Route != b.Route {
			return a.Route < b.Route
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		return a.Code < b.Code
	})
	return snap
}
