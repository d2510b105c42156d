// Package consumer reads document ingest events from Kafka and applies them
// to the in-memory index.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/metrics"
)

// Indexer is the part of the executor the consumer mutates.
type Indexer interface {
	AddDocument(id int, text string, status index.Status, ratings []int) error
	RemoveDocument(policy ranker.Policy, id int) bool
	Policy() ranker.Policy
}

// Invalidator retires cached search results after a mutation.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates an IndexConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler applying ingest events to
// idx. Undecodable events and events the index rejects are logged and
// committed, since redelivery cannot make them succeed. inv and m may be
// nil.
func HandleMessage(idx Indexer, inv Invalidator, m *metrics.Metrics) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			logger.Error("failed to decode ingest event",
				"error", err,
				"key", string(key),
			)
			return nil
		}

		changed, err := apply(idx, event)
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidInput) || errors.Is(err, apperrors.ErrDuplicateID) {
				logger.Warn("ingest event rejected",
					"op", event.Op,
					"doc_id", event.ID,
					"error", err,
				)
				return nil
			}
			return fmt.Errorf("applying %s for document %d: %w", event.Op, event.ID, err)
		}
		if !changed {
			logger.Debug("ingest event was a no-op", "op", event.Op, "doc_id", event.ID)
			return nil
		}

		if m != nil {
			if event.Op == ingestion.OpRemove {
				m.DocsRemovedTotal.Inc()
			} else {
				m.DocsIndexedTotal.WithLabelValues("kafka").Inc()
			}
		}
		if inv != nil {
			if err := inv.Invalidate(ctx); err != nil {
				logger.Warn("cache invalidation failed", "doc_id", event.ID, "error", err)
			}
		}
		logger.Info("ingest event applied",
			"op", event.Op,
			"doc_id", event.ID,
		)
		return nil
	}
}

func apply(idx Indexer, event ingestion.IngestEvent) (bool, error) {
	switch event.Op {
	case ingestion.OpAdd, "":
		if err := idx.AddDocument(event.ID, event.Text, event.Status, event.Ratings); err != nil {
			return false, err
		}
		return true, nil
	case ingestion.OpRemove:
		return idx.RemoveDocument(idx.Policy(), event.ID), nil
	default:
		return false, apperrors.Invalidf(apperrors.ErrInvalidArgument, "unknown op %q", event.Op)
	}
}
