// Package sink forwards audit events to external systems. Sinks are best
// effort; the durable trail lives in the audit store.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	audit "provena/internal/audit"
	"provena/pkg/platform/circuit"
)

// Appender is the subset of audit.Store a sink implements.
type Appender interface {
	Append(ctx context.Context, event audit.Event) error
}

// Producer publishes raw records to a topic.
type Producer interface {
	Produce(ctx context.Context, key, value []byte) error
}

// Kafka publishes audit events to the audit topic. A circuit breaker sheds
// publishes while the brokers are down so commits are not held hostage.
type Kafka struct {
	producer Producer
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewKafka(producer Producer, logger *slog.Logger) *Kafka {
	return &Kafka{
		producer: producer,
		breaker: circuit.New("audit-kafka",
			circuit.WithFailureThreshold(5),
			circuit.WithSuccessThreshold(2),
		),
		logger: logger,
	}
}

func (k *Kafka) Append(ctx context.Context, event audit.Event) error {
	if k.breaker.IsOpen() {
		k.logger.WarnContext(ctx, "audit kafka breaker open, skipping publish",
			"action", event.Action,
			"event_id", event.ID,
		)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	key := []byte(event.EntityID.String())
	if err := k.producer.Produce(ctx, key, payload); err != nil {
		k.breaker.RecordFailure()
		k.logger.ErrorContext(ctx, "audit kafka publish failed",
			"action", event.Action,
			"event_id", event.ID,
			"error", err,
		)
		return nil
	}
	k.breaker.RecordSuccess()
	return nil
}
