package kafka

import (
	"context"

	"github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
)

// ActivityPublisher pushes activity records onto the activity stream.
// Application services call it after every successful mutation. Publishing
// is asynchronous and best effort: a broker outage slows no request and
// costs only audit rows.
type ActivityPublisher struct {
	producer *Producer
	source   string
	logger   logging.Logger
}

// NewActivityPublisher wires a publisher to an existing producer. source
// names the emitting process and should be one of the Source constants.
func NewActivityPublisher(producer *Producer, source string, logger logging.Logger) *ActivityPublisher {
	if source == "" {
		source = SourceAPI
	}
	return &ActivityPublisher{
		producer: producer,
		source:   source,
		logger:   logger,
	}
}

// Publish sends one record to the activity topic, keyed by actor so each
// actor's trail stays ordered within a partition. Envelope construction
// failures are logged and the event dropped.
func (p *ActivityPublisher) Publish(ctx context.Context, rec *activity.ActivityRecord) {
	if rec == nil {
		return
	}
	payload := ActivityEventPayload{
		ActorID:    rec.ActorID,
		Action:     rec.Action,
		EntityType: rec.EntityType,
		EntityID:   rec.EntityID,
		Detail:     rec.Detail,
		OccurredAt: rec.OccurredAt,
	}
	env, err := NewEventEnvelope(rec.Action, p.source, payload)
	if err != nil {
		p.logger.Error("Activity event dropped",
			logging.String("action", rec.Action),
			logging.Err(err))
		return
	}
	msg, err := env.ToMessage(TopicActivityEvents)
	if err != nil {
		p.logger.Error("Activity event dropped",
			logging.String("action", rec.Action),
			logging.Err(err))
		return
	}
	msg.Key = []byte(rec.ActorID)
	p.producer.PublishAsync(ctx, msg)
}
