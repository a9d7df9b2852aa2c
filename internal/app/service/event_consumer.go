package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mkraev/linkforge/internal/app/model"
	apprepository "github.com/mkraev/linkforge/internal/app/repository"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// EventConsumer consumes registration events from NATS JetStream and persists
// them to the audit trail.
type EventConsumer struct {
	js     nats.JetStreamContext
	logger *zap.Logger
	repo   apprepository.LinkEventRepository
}

// NewEventConsumer creates a new registration event consumer.
func NewEventConsumer(js nats.JetStreamContext, logger *zap.Logger, repo apprepository.LinkEventRepository) *EventConsumer {
	return &EventConsumer{js: js, logger: logger, repo: repo}
}

// Start ensures the stream and durable consumer exist, then begins consuming.
func (c *EventConsumer) Start() error {
	_, err := c.js.StreamInfo(model.LinkStreamName)
	if err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.LinkStreamName,
			Subjects: []string{model.LinkStreamSubject},
			MaxBytes: model.LinkStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	_, err = c.js.ConsumerInfo(model.LinkStreamName, model.LinkConsumerName)
	if err != nil {
		_, err = c.js.AddConsumer(model.LinkStreamName, &nats.ConsumerConfig{
			Durable:   model.LinkConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.LinkStreamSubject, model.LinkConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(sub)
	return nil
}

func (c *EventConsumer) consume(sub *nats.Subscription) {
	ctx := context.Background()
	for {
		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && err != nats.ErrTimeout {
			c.logger.Error("failed to fetch messages", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			var event model.LinkEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				c.logger.Error("failed to unmarshal link event", zap.Error(err))
				msg.Nak()
				continue
			}

			if err := c.repo.Create(ctx, &event); err != nil {
				c.logger.Error("failed to store link event",
					zap.String("id", event.ID),
					zap.String("slug", event.Slug),
					zap.Error(err))
				msg.Nak()
				continue
			}

			c.logger.Debug("link event stored",
				zap.String("id", event.ID),
				zap.String("slug", event.Slug),
				zap.String("caller", event.CallerKey),
			)

			msg.Ack()
		}
	}
}
