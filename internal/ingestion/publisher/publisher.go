// Package publisher validates ingest events and publishes them to Kafka in
// batches, retrying transient broker failures.
package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/resilience"
)

const defaultBatchSize = 100

// BatchPublisher is the part of kafka.Producer the publisher needs.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Result counts what one Publish call did.
type Result struct {
	Published int
	Rejected  int
}

type Publisher struct {
	producer  BatchPublisher
	batchSize int
	retry     resilience.RetryConfig
	logger    *slog.Logger
}

// New creates a Publisher. batchSize <= 0 means 100.
func New(producer BatchPublisher, batchSize int, retry resilience.RetryConfig) *Publisher {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Publisher{
		producer:  producer,
		batchSize: batchSize,
		retry:     retry,
		logger:    slog.Default().With("component", "publisher"),
	}
}

// Publish validates every event, drops and counts the invalid ones, and
// publishes the rest in order. It stops at the first batch that still fails
// after retries.
func (p *Publisher) Publish(ctx context.Context, events []ingestion.IngestEvent) (Result, error) {
	var res Result
	batch := make([]kafka.Event, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := resilience.Retry(ctx, "publish-ingest-batch", p.retry, func() error {
			return p.producer.PublishBatch(ctx, batch)
		})
		if err != nil {
			return fmt.Errorf("publishing batch of %d after %d events: %w", len(batch), res.Published, err)
		}
		res.Published += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, e := range events {
		if err := validator.ValidateEvent(e); err != nil {
			p.logger.Warn("ingest event rejected", "doc_id", e.ID, "op", e.Op, "error", err)
			res.Rejected++
			continue
		}
		batch = append(batch, e.KafkaEvent())
		if len(batch) == p.batchSize {
			if err := flush(); err != nil {
				return res, err
			}
		}
	}
	if err := flush(); err != nil {
		return res, err
	}
	p.logger.Info("ingest events published", "published", res.Published, "rejected", res.Rejected)
	return res, nil
}
