package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"commune/internal/platform/kafka"
	"commune/pkg/requestcontext"
)

// Publisher receives events after the emitting operation's preconditions
// pass. Emit must be cheap; slow sinks buffer or drop rather than stall the
// ledger.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// LogPublisher writes events to the structured log. Default sink for dev and
// the memory deployment.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Emit(ctx context.Context, event Event) error {
	p.fill(ctx, &event)
	p.logger.InfoContext(ctx, "audit event",
		"action", event.Action,
		"member_id", event.Member.String(),
		"subject", event.Subject,
		"amount", event.Amount,
		"request_id", event.RequestID,
	)
	return nil
}

func (p *LogPublisher) fill(ctx context.Context, event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
}

// KafkaPublisher produces events to the audit topic, keyed by member so one
// member's history stays in partition order. Publish failures are logged and
// swallowed: audit delivery must not abort a committed ledger operation.
type KafkaPublisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, logger: logger}
}

func (p *KafkaPublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := p.producer.Publish(publishCtx, []byte(event.Member.String()), value); err != nil {
		p.logger.ErrorContext(ctx, "audit publish failed",
			"error", err,
			"action", event.Action,
		)
	}
	return nil
}
