package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// Publisher sends assistant telemetry.
type Publisher interface {
	PublishChat(ctx context.Context, event ChatEvent) error
	PublishStageFailure(ctx context.Context, event StageFailureEvent) error
}

// JetStreamPublisher publishes telemetry to NATS JetStream.
type JetStreamPublisher struct {
	js jetstream.JetStream
}

// NewPublisher creates a new JetStreamPublisher.
func NewPublisher(js jetstream.JetStream) *JetStreamPublisher {
	return &JetStreamPublisher{js: js}
}

// PublishChat publishes a handled-request event.
func (p *JetStreamPublisher) PublishChat(ctx context.Context, event ChatEvent) error {
	return p.publish(ctx, SubjectChat, event)
}

// PublishStageFailure publishes a degraded-stage event.
func (p *JetStreamPublisher) PublishStageFailure(ctx context.Context, event StageFailureEvent) error {
	return p.publish(ctx, SubjectStageFailure, event)
}

func (p *JetStreamPublisher) publish(ctx context.Context, subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event for %s: %w", subject, err)
	}
	_, err = p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}

// Noop discards every event. Used when no NATS URL is configured.
type Noop struct{}

func (Noop) PublishChat(context.Context, ChatEvent) error                 { return nil }
func (Noop) PublishStageFailure(context.Context, StageFailureEvent) error { return nil }
