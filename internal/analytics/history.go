// Package analytics keeps the request history used for search statistics
// and ships search events to Kafka and Postgres.
package analytics

import (
	"sort"
	"sync"
	"time"
)

// DefaultWindow is the number of requests the history retains.
const DefaultWindow = 1440

// Stats summarises the requests currently in the window.
type Stats struct {
	Window            int          `json:"window"`
	Requests          int          `json:"requests"`
	TotalRequests     int64        `json:"total_requests"`
	NoResultRequests  int          `json:"no_result_requests"`
	CacheHits         int          `json:"cache_hits"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      int64        `json:"p50_latency_ms"`
	P95LatencyMs      int64        `json:"p95_latency_ms"`
	P99LatencyMs      int64        `json:"p99_latency_ms"`
	TopQueries        []QueryCount `json:"top_queries"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	CapturedAt        time.Time    `json:"captured_at"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// History is a fixed-capacity ring of the most recent search events. The
// no-result count always equals the number of retained events with zero
// results: evicting an empty event decrements it.
type History struct {
	mu       sync.RWMutex
	events   []SearchEvent
	head     int
	size     int
	noResult int
	total    int64
	top      int
}

// NewHistory creates a history retaining window events; window <= 0 means
// DefaultWindow. top bounds the query lists in Stats.
func NewHistory(window, top int) *History {
	if window <= 0 {
		window = DefaultWindow
	}
	if top <= 0 {
		top = 10
	}
	return &History{
		events: make([]SearchEvent, window),
		top:    top,
	}
}

// Add records one request, evicting the oldest when the window is full.
func (h *History) Add(event SearchEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.size == len(h.events) {
		if h.events[h.head].Returned == 0 {
			h.noResult--
		}
	} else {
		h.size++
	}
	h.events[h.head] = event
	h.head = (h.head + 1) % len(h.events)
	if event.Returned == 0 {
		h.noResult++
	}
	h.total++
}

// NoResultRequests is the number of retained requests that returned nothing.
func (h *History) NoResultRequests() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.noResult
}

// Len is the number of retained requests.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

// Recent returns the retained events, oldest first.
func (h *History) Recent() []SearchEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ordered()
}

func (h *History) ordered() []SearchEvent {
	out := make([]SearchEvent, 0, h.size)
	start := (h.head - h.size + len(h.events)) % len(h.events)
	for i := 0; i < h.size; i++ {
		out = append(out, h.events[(start+i)%len(h.events)])
	}
	return out
}

func (h *History) Stats() Stats {
	h.mu.RLock()
	events := h.ordered()
	stats := Stats{
		Window:           len(h.events),
		Requests:         h.size,
		TotalRequests:    h.total,
		NoResultRequests: h.noResult,
		CapturedAt:       time.Now().UTC(),
	}
	h.mu.RUnlock()

	queryCounts := make(map[string]int64)
	zeroQueries := make(map[string]int64)
	latencies := make([]int64, 0, len(events))
	for _, e := range events {
		queryCounts[e.Query]++
		if e.Returned == 0 {
			zeroQueries[e.Query]++
		}
		if e.CacheHit {
			stats.CacheHits++
		}
		latencies = append(latencies, e.LatencyMs)
	}
	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		var sum int64
		for _, l := range latencies {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(latencies))
		stats.P50LatencyMs = percentile(latencies, 50)
		stats.P95LatencyMs = percentile(latencies, 95)
		stats.P99LatencyMs = percentile(latencies, 99)
	}
	stats.TopQueries = topN(queryCounts, h.top)
	stats.ZeroResultQueries = topN(zeroQueries, h.top)
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN orders by count descending, then query ascending for stable output.
func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
