package analytics

import "time"

type EventType string

const (
	EventSearch     EventType = "search"
	EventZeroResult EventType = "zero_result"
)

// SearchEvent describes one answered search request. It is what the history
// records and what the collector publishes to Kafka.
type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Plus      []string  `json:"plus,omitempty"`
	Minus     []string  `json:"minus,omitempty"`
	Status    string    `json:"status"`
	Policy    string    `json:"policy"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// NewSearchEvent fills Type from the result count.
func NewSearchEvent(query string, returned int) SearchEvent {
	typ := EventSearch
	if returned == 0 {
		typ = EventZeroResult
	}
	return SearchEvent{
		Type:      typ,
		Query:     query,
		Returned:  returned,
		Timestamp: time.Now().UTC(),
	}
}
