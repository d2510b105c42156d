package analytics

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/kafka"
)

// Publisher is the part of kafka.Producer the collector needs.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Collector buffers search events and publishes them from one goroutine so
// request handlers never block on Kafka.
type Collector struct {
	publisher Publisher
	eventCh   chan SearchEvent
	logger    *slog.Logger
	done      chan struct{}
}

func NewCollector(publisher Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		publisher: publisher,
		eventCh:   make(chan SearchEvent, bufferSize),
		logger:    slog.Default().With("component", "analytics-collector"),
		done:      make(chan struct{}),
	}
}

func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				c.publish(ctx, event)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues event, dropping it when the buffer is full.
func (c *Collector) Track(event SearchEvent) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)", "query", event.Query)
	}
}

// Close stops accepting events and waits for the publish loop to exit.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) publish(ctx context.Context, event SearchEvent) {
	if err := c.publisher.Publish(ctx, kafka.Event{
		Key:   string(event.Type),
		Value: event,
	}); err != nil {
		c.logger.Error("failed to publish analytics event", "error", err)
	}
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			c.publish(context.Background(), event)
		default:
			return
		}
	}
}
