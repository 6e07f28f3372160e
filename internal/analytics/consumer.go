package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/AdilSaeed0347/InsightFolio/internal/events"
)

const (
	consumerName = "analytics-recorder"
	fetchBackoff = time.Second
)

// errMalformed marks events that can never be decoded. They are terminated
// instead of redelivered.
var errMalformed = errors.New("malformed event")

// Store persists telemetry events.
type Store interface {
	InsertChat(ctx context.Context, e events.ChatEvent) error
	InsertFailure(ctx context.Context, e events.StageFailureEvent) error
}

// ConsumerSource creates the durable consumer the recorder reads from.
type ConsumerSource interface {
	EnsureConsumer(ctx context.Context, name, filterSubject string) (jetstream.Consumer, error)
}

// message is the part of jetstream.Msg the recorder settles.
type message interface {
	Subject() string
	Data() []byte
	Ack() error
	Nak() error
	Term() error
}

// Consumer listens on the telemetry stream and persists events to the database.
type Consumer struct {
	store   Store
	source  ConsumerSource
	backoff time.Duration
}

// NewConsumer creates a new analytics Consumer.
func NewConsumer(store Store, source ConsumerSource) *Consumer {
	return &Consumer{store: store, source: source, backoff: fetchBackoff}
}

// Start begins the consume loop. Blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	consumer, err := c.source.EnsureConsumer(ctx, consumerName, events.SubjectPrefix+".>")
	if err != nil {
		return err
	}

	slog.Info("analytics consumer started", "consumer", consumerName)

	for {
		msgs, err := consumer.Fetch(10, jetstream.FetchMaxWait(events.FetchTimeout))
		if err != nil {
			slog.Debug("analytics consumer: fetching events", "error", err)
			if !sleep(ctx, c.backoff) {
				return nil
			}
			continue
		}

		for msg := range msgs.Messages() {
			c.settle(ctx, msg)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

// settle records one message and acknowledges it. Store failures are
// redelivered; undecodable payloads are terminated.
func (c *Consumer) settle(ctx context.Context, msg message) {
	err := c.handle(ctx, msg.Subject(), msg.Data())
	switch {
	case err == nil:
		_ = msg.Ack()
	case errors.Is(err, errMalformed):
		slog.Warn("analytics consumer: dropping malformed event", "subject", msg.Subject(), "error", err)
		_ = msg.Term()
	default:
		slog.Error("analytics consumer: recording event", "subject", msg.Subject(), "error", err)
		_ = msg.Nak()
	}
}

// sleep waits for d and reports false if ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// handle decodes one message by subject and stores it. Unknown subjects are
// acknowledged without being stored.
func (c *Consumer) handle(ctx context.Context, subject string, data []byte) error {
	switch subject {
	case events.SubjectChat:
		var e events.ChatEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("%w: chat event: %w", errMalformed, err)
		}
		return c.store.InsertChat(ctx, e)
	case events.SubjectStageFailure:
		var e events.StageFailureEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("%w: stage failure: %w", errMalformed, err)
		}
		return c.store.InsertFailure(ctx, e)
	default:
		slog.Debug("analytics consumer: skipping subject", "subject", subject)
		return nil
	}
}
