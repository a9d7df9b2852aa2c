package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mkraev/linkforge/internal/app/model"
	"github.com/nats-io/nats.go"
)

// EventPublisher publishes registration events to NATS JetStream.
type EventPublisher struct {
	js nats.JetStreamContext
}

// NewEventPublisher creates a new registration event publisher.
func NewEventPublisher(js nats.JetStreamContext) *EventPublisher {
	return &EventPublisher{js: js}
}

// Publish emits one event for a freshly registered link.
func (p *EventPublisher) Publish(link model.ShortLink, callerKey, requestID string) error {
	event := model.LinkEvent{
		ID:        uuid.New().String(),
		Slug:      link.Slug,
		TargetURL: link.TargetURL,
		CallerKey: callerKey,
		RequestID: requestID,
		TTL:       int64(link.TTL / time.Second),
		CreatedAt: link.CreatedAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.LinkStreamSubject, data)
	return err
}
