package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
)

var (
	// ErrAlreadyRunning is returned by Start on a consumer that is running.
	ErrAlreadyRunning = errors.New(errors.CodeConflict, "kafka consumer is already running")
	// ErrConsumerClosed is returned by Start after Close.
	ErrConsumerClosed = errors.New(errors.CodeConflict, "kafka consumer is closed")
)

// Message is one consumed record handed to a MessageHandler.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   map[string]string
}

// MessageHandler processes one consumed message. Returning an error triggers
// the retry schedule; after the schedule is exhausted the message moves to
// the dead letter topic.
type MessageHandler func(ctx context.Context, msg *Message) error

// RetryConfig bounds redelivery of a failing message within the consumer.
type RetryConfig struct {
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	DeadLetterTopic string
}

// ConsumerConfig holds group-consumer parameters.
type ConsumerConfig struct {
	Brokers         []string
	GroupID         string
	Topics          []string
	AutoOffsetReset string // "earliest" | "latest"
	MinBytes        int
	MaxBytes        int
	MaxWait         time.Duration
	CommitInterval  time.Duration
	// Concurrency is the number of consume loops sharing the reader. Loops
	// fetch and commit independently, so ordering holds per partition only
	// when it is 1.
	Concurrency int
	Retry       RetryConfig
}

// ConsumerMetrics counts consumption over the consumer lifetime.
type ConsumerMetrics struct {
	MessagesConsumed     atomic.Int64
	MessagesProcessed    atomic.Int64
	MessagesFailed       atomic.Int64
	MessagesRetried      atomic.Int64
	MessagesDeadLettered atomic.Int64
	Lag                  atomic.Int64
}

// ConsumerStats is a point-in-time copy of ConsumerMetrics.
type ConsumerStats struct {
	MessagesConsumed     int64 `json:"messages_consumed"`
	MessagesProcessed    int64 `json:"messages_processed"`
	MessagesFailed       int64 `json:"messages_failed"`
	MessagesRetried      int64 `json:"messages_retried"`
	MessagesDeadLettered int64 `json:"messages_dead_lettered"`
	Lag                  int64 `json:"lag"`
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
	Stats() kafka.ReaderStats
}

// Consumer reads the activity stream as part of a consumer group. Offsets
// commit only after a message is handled, so delivery is at least once and
// handlers must be idempotent.
type Consumer struct {
	reader ReaderInterface
	config ConsumerConfig
	logger logging.Logger

	handlers map[string]MessageHandler
	mu       sync.RWMutex

	running atomic.Bool
	closed  atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	deadLetterProducer *Producer
	metrics            *ConsumerMetrics
}

// NewConsumer builds a group consumer. When the retry config names a dead
// letter topic a producer for it is created against the same brokers.
func NewConsumer(cfg ConsumerConfig, logger logging.Logger) (*Consumer, error) {
	if err := ValidateConsumerConfig(cfg); err != nil {
		return nil, err
	}
	cfg = applyConsumerDefaults(cfg)

	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		GroupTopics:    cfg.Topics,
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		MaxWait:        cfg.MaxWait,
		CommitInterval: cfg.CommitInterval,
		StartOffset:    startOffset,
	})

	var dlProducer *Producer
	if cfg.Retry.DeadLetterTopic != "" {
		p, err := NewProducer(ProducerConfig{Brokers: cfg.Brokers}, logger)
		if err != nil {
			reader.Close()
			return nil, err
		}
		dlProducer = p
	}

	return &Consumer{
		reader:             reader,
		config:             cfg,
		logger:             logger,
		handlers:           make(map[string]MessageHandler),
		deadLetterProducer: dlProducer,
		metrics:            &ConsumerMetrics{},
	}, nil
}

func applyConsumerDefaults(cfg ConsumerConfig) ConsumerConfig {
	if cfg.AutoOffsetReset == "" {
		cfg.AutoOffsetReset = "earliest"
	}
	if cfg.MinBytes <= 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = time.Second
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return cfg
}

// Subscribe registers the handler for a topic. Messages on topics without a
// handler are committed and skipped.
func (c *Consumer) Subscribe(topic string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.logger.Info("Subscribed to topic", logging.String("topic", topic))
}

// Start launches the consume loops. It returns immediately; the loops run
// until the context is canceled or Close is called.
func (c *Consumer) Start(ctx context.Context) error {
	if c.closed.Load() {
		return ErrConsumerClosed
	}
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	loops := c.config.Concurrency
	if loops < 1 {
		loops = 1
	}
	c.wg.Add(loops)
	for i := 0; i < loops; i++ {
		go c.consumeLoop(ctx)
	}

	c.logger.Info("Kafka consumer started",
		logging.String("group", c.config.GroupID),
		logging.Any("topics", c.config.Topics),
		logging.Int("concurrency", loops))
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Fetch message failed", logging.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		c.metrics.MessagesConsumed.Add(1)
		c.metrics.Lag.Store(m.HighWaterMark - m.Offset)

		msg := &Message{
			Topic:     m.Topic,
			Partition: m.Partition,
			Offset:    m.Offset,
			Key:       m.Key,
			Value:     m.Value,
			Timestamp: m.Time,
			Headers:   make(map[string]string, len(m.Headers)),
		}
		for _, h := range m.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}

		c.mu.RLock()
		handler, ok := c.handlers[m.Topic]
		c.mu.RUnlock()

		if !ok {
			c.logger.Warn("No handler for topic, skipping",
				logging.String("topic", m.Topic))
			c.commit(ctx, m)
			continue
		}

		if err := c.processMessage(ctx, msg, handler); err != nil {
			// Only a canceled context aborts processing. The commit is
			// skipped so the message is redelivered on restart.
			return
		}
		c.commit(ctx, m)
	}
}

func (c *Consumer) commit(ctx context.Context, m kafka.Message) {
	if err := c.reader.CommitMessages(ctx, m); err != nil {
		c.logger.Error("Commit failed",
			logging.String("topic", m.Topic),
			logging.Int64("offset", m.Offset),
			logging.Err(err))
	}
}

// processMessage runs the handler with the configured retry schedule. It
// returns an error only when the context is canceled mid-schedule; a message
// that keeps failing is dead lettered (or dropped) and reported as handled
// so the partition keeps moving.
func (c *Consumer) processMessage(ctx context.Context, msg *Message, handler MessageHandler) error {
	err := handler(ctx, msg)
	if err == nil {
		c.metrics.MessagesProcessed.Add(1)
		return nil
	}

	backoff := c.config.Retry.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	maxBackoff := c.config.Retry.MaxRetryBackoff
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}

	for attempt := 0; attempt < c.config.Retry.MaxRetries; attempt++ {
		c.metrics.MessagesRetried.Add(1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if err = handler(ctx, msg); err == nil {
			c.metrics.MessagesProcessed.Add(1)
			return nil
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	c.metrics.MessagesFailed.Add(1)
	c.logger.Error("Message dropped after retries",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Int("attempts", c.config.Retry.MaxRetries+1),
		logging.Err(err))
	c.sendToDeadLetter(ctx, msg, err)
	return nil
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg *Message, procErr error) {
	if c.deadLetterProducer == nil || c.config.Retry.DeadLetterTopic == "" {
		return
	}
	headers := make(map[string]string, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["original_topic"] = msg.Topic
	headers["error_message"] = procErr.Error()

	dlMsg := &ProducerMessage{
		Topic:   c.config.Retry.DeadLetterTopic,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
	if err := c.deadLetterProducer.Publish(ctx, dlMsg); err != nil {
		c.logger.Error("Dead letter publish failed",
			logging.String("topic", msg.Topic),
			logging.Err(err))
		return
	}
	c.metrics.MessagesDeadLettered.Add(1)
}

// GetMetrics returns a snapshot of the lifetime counters.
func (c *Consumer) GetMetrics() ConsumerStats {
	return ConsumerStats{
		MessagesConsumed:     c.metrics.MessagesConsumed.Load(),
		MessagesProcessed:    c.metrics.MessagesProcessed.Load(),
		MessagesFailed:       c.metrics.MessagesFailed.Load(),
		MessagesRetried:      c.metrics.MessagesRetried.Load(),
		MessagesDeadLettered: c.metrics.MessagesDeadLettered.Load(),
		Lag:                  c.metrics.Lag.Load(),
	}
}

// Close stops the consume loops, waits for in-flight messages and closes
// the reader and the dead letter producer. Safe to call twice.
func (c *Consumer) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.running.Store(false)

	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	if c.reader != nil {
		c.reader.Close()
	}
	if c.deadLetterProducer != nil {
		c.deadLetterProducer.Close()
	}

	c.logger.Info("Kafka consumer closed",
		logging.Int64("consumed", c.metrics.MessagesConsumed.Load()),
		logging.Int64("dead_lettered", c.metrics.MessagesDeadLettered.Load()))
	return nil
}

// ValidateConsumerConfig checks the parts defaults cannot repair.
func ValidateConsumerConfig(cfg ConsumerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.InvalidParam("brokers are required")
	}
	if cfg.GroupID == "" {
		return errors.InvalidParam("group id is required")
	}
	if len(cfg.Topics) == 0 {
		return errors.InvalidParam("at least one topic is required")
	}
	switch cfg.AutoOffsetReset {
	case "", "earliest", "latest":
	default:
		return errors.InvalidParam("auto offset reset must be earliest or latest")
	}
	if cfg.Retry.MaxRetries < 0 {
		return errors.InvalidParam("max retries cannot be negative")
	}
	return nil
}
