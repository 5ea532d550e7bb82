package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	coredomain "github.com/nexcommerce/whatsapp-gateway/internal/core_whatsapp/domain"
	"github.com/nexcommerce/whatsapp-gateway/internal/platform/messagebroker"
)

// EventConsumer consumes inbound batch events from NATS and forwards them
// to the dispatch worker over a channel.
type EventConsumer struct {
	natsClient messagebroker.NATSClient
	logger     *slog.Logger
	outputChan chan<- coredomain.InboundBatchEvent
}

// NewEventConsumer creates a consumer writing deserialized events to outputChan.
func NewEventConsumer(natsClient messagebroker.NATSClient, logger *slog.Logger, outputChan chan<- coredomain.InboundBatchEvent) *EventConsumer {
	return &EventConsumer{
		natsClient: natsClient,
		logger:     logger.With("component", "event_consumer"),
		outputChan: outputChan,
	}
}

// StartConsuming subscribes to subject with queueGroup and blocks until ctx
// is cancelled or the subscription fails.
func (c *EventConsumer) StartConsuming(ctx context.Context, subject string, queueGroup string) error {
	msgHandler := func(msg *nats.Msg) {
		natsInboundEventsCounter.WithLabelValues(subject).Inc()
		c.logger.InfoContext(ctx, "Received NATS message", "subject", msg.Subject, "data_len", len(msg.Data))

		var event coredomain.InboundBatchEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			c.logger.ErrorContext(ctx, "Failed to deserialize inbound batch event",
				"error", err, "subject", msg.Subject, "data", string(msg.Data))
			return
		}

		sendCtx, cancelSend := context.WithTimeout(ctx, 5*time.Second)
		defer cancelSend()

		select {
		case c.outputChan <- event:
			c.logger.DebugContext(sendCtx, "Queued inbound batch event for dispatch",
				"messages", len(event.Messages), "statuses", len(event.Statuses))
		case <-sendCtx.Done():
			c.logger.ErrorContext(sendCtx, "Timed out queueing inbound batch event", "error", sendCtx.Err())
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Context cancelled, dropping inbound batch event")
		}
	}

	c.logger.InfoContext(ctx, "Starting NATS subscription", "subject", subject, "queue_group", queueGroup)
	if err := c.natsClient.Subscribe(ctx, subject, queueGroup, msgHandler); err != nil {
		c.logger.ErrorContext(ctx, "NATS subscription failed", "error", err, "subject", subject)
		return err
	}

	c.logger.InfoContext(ctx, "NATS subscription ended.", "subject", subject)
	return nil
}
