package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
)

// ErrProducerClosed is returned by Publish after Close.
var ErrProducerClosed = errors.New(errors.ErrCodePublishFailed, "kafka producer is closed")

// ProducerMessage is one message to publish.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// ProducerConfig holds producer parameters. Brokers is the only required
// field; NewProducer fills the rest.
type ProducerConfig struct {
	Brokers                []string
	Acks                   string // "none" | "one" | "all"
	MaxRetries             int
	BatchSize              int
	BatchTimeout           time.Duration
	MaxMessageBytes        int
	WriteTimeout           time.Duration
	AllowAutoTopicCreation bool
}

// ProducerMetrics counts publishes over the producer lifetime.
type ProducerMetrics struct {
	MessagesSent   atomic.Int64
	MessagesFailed atomic.Int64
	BytesSent      atomic.Int64
}

// ProducerStats is a point-in-time copy of ProducerMetrics.
type ProducerStats struct {
	MessagesSent   int64 `json:"messages_sent"`
	MessagesFailed int64 `json:"messages_failed"`
	BytesSent      int64 `json:"bytes_sent"`
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
	Stats() kafka.WriterStats
}

// Producer publishes domain events. Publishing is best effort from the
// caller's point of view: request handlers use PublishAsync and never fail
// a request over a broker outage.
type Producer struct {
	writer  WriterInterface
	config  ProducerConfig
	logger  logging.Logger
	closed  atomic.Bool
	metrics *ProducerMetrics
}

// NewProducer builds a producer for the given brokers. Messages hash onto
// partitions by key, so events keyed by actor stay ordered per actor.
func NewProducer(cfg ProducerConfig, logger logging.Logger) (*Producer, error) {
	if err := ValidateProducerConfig(cfg); err != nil {
		return nil, err
	}
	cfg = applyProducerDefaults(cfg)

	var requiredAcks kafka.RequiredAcks
	switch cfg.Acks {
	case "none":
		requiredAcks = kafka.RequireNone
	case "all":
		requiredAcks = kafka.RequireAll
	default:
		requiredAcks = kafka.RequireOne
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		MaxAttempts:            cfg.MaxRetries + 1,
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           requiredAcks,
		AllowAutoTopicCreation: cfg.AllowAutoTopicCreation,
		Transport:              &kafka.Transport{DialTimeout: 10 * time.Second},
	}

	return &Producer{
		writer:  writer,
		config:  cfg,
		logger:  logger,
		metrics: &ProducerMetrics{},
	}, nil
}

func applyProducerDefaults(cfg ProducerConfig) ProducerConfig {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = time.Second
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = 1 << 20
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return cfg
}

// Publish writes one message and waits for the broker ack.
func (p *Producer) Publish(ctx context.Context, msg *ProducerMessage) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if msg.Topic == "" {
		return errors.InvalidParam("topic is required")
	}
	if len(msg.Value) == 0 {
		return errors.InvalidParam("message value is required")
	}
	if len(msg.Value) > p.config.MaxMessageBytes {
		return errors.Newf(errors.CodeInvalidParam, "message of %d bytes exceeds limit of %d", len(msg.Value), p.config.MaxMessageBytes)
	}

	start := time.Now()
	if err := p.writer.WriteMessages(ctx, p.toKafkaMessage(msg)); err != nil {
		p.metrics.MessagesFailed.Add(1)
		return errors.Wrap(err, errors.ErrCodePublishFailed, "publish to "+msg.Topic)
	}

	p.metrics.MessagesSent.Add(1)
	p.metrics.BytesSent.Add(int64(len(msg.Value)))
	p.logger.Debug("Message published",
		logging.String("topic", msg.Topic),
		logging.Int64("latency_ms", time.Since(start).Milliseconds()))
	return nil
}

// PublishEvent wraps the envelope into a message keyed by partition key and
// publishes it. Activity events key on the actor ID.
func (p *Producer) PublishEvent(ctx context.Context, topic string, key []byte, env *EventEnvelope) error {
	msg, err := env.ToMessage(topic)
	if err != nil {
		return err
	}
	msg.Key = key
	return p.Publish(ctx, msg)
}

// PublishAsync publishes without blocking the caller. Failures are logged
// and counted, never returned: a dropped activity event must not fail the
// request that produced it. The publish runs on a context detached from the
// caller, so an aborted request cannot cancel its own event.
func (p *Producer) PublishAsync(ctx context.Context, msg *ProducerMessage) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		pubCtx, cancel := context.WithTimeout(ctx, p.config.WriteTimeout)
		defer cancel()
		if err := p.Publish(pubCtx, msg); err != nil {
			p.logger.Error("Async publish failed",
				logging.String("topic", msg.Topic),
				logging.Err(err))
		}
	}()
}

// GetMetrics returns a snapshot of the lifetime counters.
func (p *Producer) GetMetrics() ProducerStats {
	return ProducerStats{
		MessagesSent:   p.metrics.MessagesSent.Load(),
		MessagesFailed: p.metrics.MessagesFailed.Load(),
		BytesSent:      p.metrics.BytesSent.Load(),
	}
}

// Close flushes and closes the underlying writer. Safe to call twice.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed",
		logging.Int64("sent", p.metrics.MessagesSent.Load()),
		logging.Int64("failed", p.metrics.MessagesFailed.Load()))
	return err
}

func (p *Producer) toKafkaMessage(msg *ProducerMessage) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return kafka.Message{
		Topic:   msg.Topic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
		Time:    ts,
	}
}

// ValidateProducerConfig checks the parts defaults cannot repair.
func ValidateProducerConfig(cfg ProducerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.InvalidParam("brokers are required")
	}
	if cfg.MaxRetries < 0 {
		return errors.InvalidParam("max retries cannot be negative")
	}
	switch cfg.Acks {
	case "", "none", "one", "all":
	default:
		return errors.InvalidParam("acks must be one of none, one, all")
	}
	return nil
}
