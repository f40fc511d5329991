package analytics

import (
	"context"
	"log/slog"

	"github.com/supporthq/ticket-enrichment-platform/pkg/kafka"
	"github.com/supporthq/ticket-enrichment-platform/pkg/metrics"
)

// Publisher is the event sink, normally the Kafka producer.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Collector buffers processing events and publishes them to Kafka from a
// background goroutine. Track never blocks: when the buffer is full the
// event is dropped and counted, because analytics must not slow down or
// fail ticket delivery.
type Collector struct {
	producer Publisher
	eventCh  chan ProcessedEvent
	metrics  *metrics.Metrics
	logger   *slog.Logger
	done     chan struct{}
}

// NewCollector creates a Collector with the given buffer size.
func NewCollector(producer Publisher, bufferSize int, m *metrics.Metrics) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	return &Collector{
		producer: producer,
		eventCh:  make(chan ProcessedEvent, bufferSize),
		metrics:  m,
		logger:   slog.Default().With("component", "analytics-collector"),
		done:     make(chan struct{}),
	}
}

// Start launches the publish loop. On ctx cancellation any buffered events
// are drained before the loop exits.
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

// Track enqueues an event for publishing, dropping it when the buffer is
// full.
func (c *Collector) Track(event ProcessedEvent) {
	select {
	case c.eventCh <- event:
	default:
		c.count("dropped")
		c.logger.Warn("analytics event dropped (buffer full)", "ticket_id", event.TicketID)
	}
}

// Close stops accepting events and waits for the publish loop to finish.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) publish(ctx context.Context, event ProcessedEvent) {
	err := c.producer.Publish(ctx, kafka.Event{
		Key:   event.TicketID,
		Value: event,
	})
	if err != nil {
		c.count("error")
		c.logger.Error("failed to publish analytics event",
			"ticket_id", event.TicketID,
			"error", err,
		)
		return
	}
	c.count("ok")
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

func (c *Collector) count(status string) {
	if c.metrics == nil {
		return
	}
	c.metrics.EventsPublishedTotal.WithLabelValues(status).Inc()
}
