// Package kafka carries the domain-event stream. The API server and CLI
// publish envelope-wrapped activity events, the worker consumes them and
// writes the durable audit rows. Losing Kafka loses in-flight activity
// entries only; the system of record stays in PostgreSQL.
package kafka

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// Topics. Every domain mutation lands on the activity stream keyed by actor,
// so per-actor ordering holds. Messages the worker gives up on move to the
// dead letter topic for manual replay.
const (
	TopicActivityEvents     = "activity.events"
	TopicActivityDeadLetter = "dead_letter.activity"
)

// Event sources, recorded in the envelope so the audit trail names the
// binary that emitted each event.
const (
	SourceAPI    = "leadtrack-api"
	SourceWorker = "leadtrack-worker"
	SourceCLI    = "leadtrack-cli"
)

// EventEnvelope is the wire format shared by all topics.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ActivityEventPayload is the payload carried by every activity event. The
// worker maps it one to one onto an audit row; EventType doubles as the
// recorded action.
type ActivityEventPayload struct {
	ActorID    common.ID      `json:"actor_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   common.ID      `json:"entity_id,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewEventEnvelope wraps a payload in a fresh envelope with a generated
// event ID and the current schema version.
func NewEventEnvelope(eventType, source string, payload any) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "marshal event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the envelope payload into target. An envelope
// without a payload is malformed; consumers always need one.
func (e *EventEnvelope) DecodePayload(target any) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeEventDecode, "envelope carries no payload")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeEventDecode, "decode event payload")
	}
	return nil
}

// ToMessage serializes the envelope into a producer message for the given
// topic. Envelope identity fields are mirrored into headers so consumers and
// ops tooling can route without unmarshaling the body.
func (e *EventEnvelope) ToMessage(topic string) (*ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "marshal event envelope")
	}
	headers := map[string]string{
		"event_type":     e.EventType,
		"source_service": e.Source,
		"schema_version": e.SchemaVersion,
	}
	if e.TraceID != "" {
		headers["trace_id"] = e.TraceID
	}
	return &ProducerMessage{
		Topic:     topic,
		Value:     val,
		Headers:   headers,
		Timestamp: e.Timestamp,
	}, nil
}

// MessageToEventEnvelope parses a consumed message back into an envelope.
func MessageToEventEnvelope(msg *Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeEventDecode, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeEventDecode, "unmarshal event envelope")
	}
	return &env, nil
}

// TopicConfig describes one topic for creation.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
	MaxMessageBytes   int64
	Configs           map[string]string
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	DeleteTopics(topics ...string) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager creates and inspects topics. The worker runs it at startup
// when auto topic creation is enabled.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

// NewTopicManager dials the first broker for admin operations.
func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.InvalidParam("brokers are required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "dial kafka broker")
	}
	return &TopicManager{
		conn:   conn,
		logger: logger,
	}, nil
}

// CreateTopic creates one topic. A topic that already exists is not an
// error; concurrent workers race to create the same set.
func (m *TopicManager) CreateTopic(ctx context.Context, cfg TopicConfig) error {
	if cfg.Name == "" {
		return errors.InvalidParam("topic name is required")
	}
	if cfg.NumPartitions <= 0 {
		return errors.InvalidParam("num partitions must be positive")
	}
	if cfg.ReplicationFactor <= 0 {
		return errors.InvalidParam("replication factor must be positive")
	}

	kcfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if cfg.RetentionMs > 0 {
		kcfg.ConfigEntries = append(kcfg.ConfigEntries, kafka.ConfigEntry{
			ConfigName:  "retention.ms",
			ConfigValue: strconv.FormatInt(cfg.RetentionMs, 10),
		})
	}
	if cfg.CleanupPolicy != "" {
		kcfg.ConfigEntries = append(kcfg.ConfigEntries, kafka.ConfigEntry{
			ConfigName:  "cleanup.policy",
			ConfigValue: cfg.CleanupPolicy,
		})
	}
	if cfg.MaxMessageBytes > 0 {
		kcfg.ConfigEntries = append(kcfg.ConfigEntries, kafka.ConfigEntry{
			ConfigName:  "max.message.bytes",
			ConfigValue: strconv.FormatInt(cfg.MaxMessageBytes, 10),
		})
	}
	for k, v := range cfg.Configs {
		kcfg.ConfigEntries = append(kcfg.ConfigEntries, kafka.ConfigEntry{
			ConfigName:  k,
			ConfigValue: v,
		})
	}

	if err := m.conn.CreateTopics(kcfg); err != nil {
		if stderrors.Is(err, kafka.TopicAlreadyExists) {
			return nil
		}
		// Some brokers report the race as a generic error; trust the
		// partition listing over the create response.
		if exists, _ := m.TopicExists(ctx, cfg.Name); exists {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeInternal, "create topic "+cfg.Name)
	}
	m.logger.Info("Topic created",
		logging.String("topic", cfg.Name),
		logging.Int("partitions", cfg.NumPartitions))
	return nil
}

// DeleteTopic removes a topic and its messages.
func (m *TopicManager) DeleteTopic(ctx context.Context, name string) error {
	if err := m.conn.DeleteTopics(name); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "delete topic "+name)
	}
	m.logger.Warn("Topic deleted", logging.String("topic", name))
	return nil
}

// TopicExists reports whether the topic has at least one partition.
func (m *TopicManager) TopicExists(ctx context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

// EnsureTopics creates every listed topic that does not exist yet.
func (m *TopicManager) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	for _, topic := range topics {
		if err := m.CreateTopic(ctx, topic); err != nil {
			return err
		}
	}
	return nil
}

// EnsureDefaultTopics creates the activity stream and its dead letter topic
// with the configured partition count and replication factor.
func (m *TopicManager) EnsureDefaultTopics(ctx context.Context, numPartitions, replicationFactor int) error {
	return m.EnsureTopics(ctx, DefaultTopics(numPartitions, replicationFactor))
}

// Close releases the admin connection.
func (m *TopicManager) Close() error {
	return m.conn.Close()
}

// DefaultTopics returns the topic set the platform needs. The activity
// stream keeps 90 days; PostgreSQL holds the durable audit trail, so Kafka
// retention only bounds replay depth. Dead letters keep 30 days.
func DefaultTopics(numPartitions, replicationFactor int) []TopicConfig {
	return []TopicConfig{
		{Name: TopicActivityEvents, NumPartitions: numPartitions, ReplicationFactor: replicationFactor, RetentionMs: 90 * 24 * 3600 * 1000},
		{Name: TopicActivityDeadLetter, NumPartitions: numPartitions, ReplicationFactor: replicationFactor, RetentionMs: 30 * 24 * 3600 * 1000},
	}
}
