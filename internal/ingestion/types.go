// Package ingestion defines the document ingest event carried on Kafka and
// the line-oriented command format used by the command-line tools.
package ingestion

import (
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/kafka"
)

type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// IngestEvent is one message on the document ingest topic. An empty Op
// means add.
type IngestEvent struct {
	Op      Op           `json:"op"`
	ID      int          `json:"id"`
	Text    string       `json:"text"`
	Status  index.Status `json:"status"`
	Ratings []int        `json:"ratings"`
}

// KafkaEvent wraps e for publishing. The key is the document id so that
// every event for one document lands on the same partition.
func (e IngestEvent) KafkaEvent() kafka.Event {
	return kafka.Event{Key: strconv.Itoa(e.ID), Value: e}
}
