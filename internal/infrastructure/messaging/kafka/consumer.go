package kafka

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/MolMatch/internal/config"
	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/pkg/errors"
)

var ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")

// MessageHandler processes one message. Returning an error wrapped with
// NonRetryable skips the retries.
type MessageHandler func(ctx context.Context, msg *Message) error

// Dead-letter headers.
const (
	HeaderOriginalTopic = "x-original-topic"
	HeaderError         = "x-error"
	HeaderAttempts      = "x-attempts"
)

type ConsumerConfig struct {
	Brokers         []string
	GroupID         string
	Topics          []string
	StartOffset     string // "earliest" | "latest"
	MaxRetries      int
	RetryBackoff    time.Duration
	MaxRetryBackoff time.Duration
	// DeadLetterTopic receives messages whose handling failed for good.
	// Empty drops them after logging.
	DeadLetterTopic string
}

// ConsumerConfigFrom maps the kafka config section for the given topics.
func ConsumerConfigFrom(cfg config.KafkaConfig, deadLetterTopic string, topics ...string) ConsumerConfig {
	return ConsumerConfig{
		Brokers:         cfg.Brokers,
		GroupID:         cfg.GroupID,
		Topics:          topics,
		MaxRetries:      cfg.MaxRetries,
		RetryBackoff:    cfg.RetryBackoff,
		DeadLetterTopic: deadLetterTopic,
	}
}

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerStats is a snapshot of the consumer counters.
type ConsumerStats struct {
	Consumed     int64
	Processed    int64
	Retried      int64
	DeadLettered int64
	Dropped      int64
}

type Consumer struct {
	reader     ReaderInterface
	config     ConsumerConfig
	deadLetter Publisher
	logger     logging.Logger

	mu       sync.RWMutex
	handlers map[string]MessageHandler

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	consumed, processed, retried, deadLettered, dropped atomic.Int64
}

// NewConsumer joins cfg.GroupID on cfg.Topics. deadLetter may be nil when
// cfg.DeadLetterTopic is empty.
func NewConsumer(cfg ConsumerConfig, deadLetter Publisher, logger logging.Logger) (*Consumer, error) {
	if err := ValidateConsumerConfig(cfg); err != nil {
		return nil, err
	}
	start := kafka.FirstOffset
	if cfg.StartOffset == "latest" {
		start = kafka.LastOffset
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    1,
		MaxBytes:    10 << 20,
		MaxWait:     time.Second,
		StartOffset: start,
	})
	return newConsumer(reader, cfg, deadLetter, logger), nil
}

func newConsumer(r ReaderInterface, cfg ConsumerConfig, deadLetter Publisher, logger logging.Logger) *Consumer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = time.Second
	}
	if cfg.MaxRetryBackoff == 0 {
		cfg.MaxRetryBackoff = 30 * time.Second
	}
	return &Consumer{
		reader:     r,
		config:     cfg,
		deadLetter: deadLetter,
		logger:     logger.Named("kafka.consumer"),
		handlers:   make(map[string]MessageHandler),
	}
}

// Subscribe routes messages of topic to handler, replacing any earlier one.
func (c *Consumer) Subscribe(topic string, handler MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	c.logger.Info("subscribed to topic", logging.String("topic", topic))
}

// Start runs the fetch loop in the background until Close or ctx ends.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.loop(ctx)
	c.logger.Info("kafka consumer started", logging.String("group", c.config.GroupID), logging.Strings("topics", c.config.Topics))
	return nil
}

func (c *Consumer) loop(ctx context.Context) {
	defer c.wg.Done()
	backoff := c.config.RetryBackoff
	for ctx.Err() == nil {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("fetch failed", logging.Err(err))
			if !sleep(ctx, backoff) {
				return
			}
			continue
		}
		c.consumed.Add(1)

		if !c.handle(ctx, m) {
			// Cancelled mid-handling: leave the offset so the message is redelivered.
			return
		}
		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("commit failed", logging.String("topic", m.Topic), logging.Int64("offset", m.Offset), logging.Err(err))
		}
	}
}

// handle runs the handler with retries and dead-letters on final failure.
// It returns false only when ctx ended before the message was settled.
func (c *Consumer) handle(ctx context.Context, m kafka.Message) bool {
	msg := fromKafkaMessage(m)

	c.mu.RLock()
	handler, ok := c.handlers[m.Topic]
	c.mu.RUnlock()
	if !ok {
		c.logger.Warn("no handler for topic", logging.String("topic", m.Topic))
		c.dropped.Add(1)
		return true
	}

	backoff := c.config.RetryBackoff
	attempts := 0
	var err error
	for {
		attempts++
		if err = handler(ctx, msg); err == nil {
			c.processed.Add(1)
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		if IsNonRetryable(err) || attempts > c.config.MaxRetries {
			break
		}
		c.retried.Add(1)
		if !sleep(ctx, backoff) {
			return false
		}
		if backoff *= 2; backoff > c.config.MaxRetryBackoff {
			backoff = c.config.MaxRetryBackoff
		}
	}

	c.logger.Error("message handling failed",
		logging.String("topic", msg.Topic),
		logging.Int64("offset", msg.Offset),
		logging.Int("attempts", attempts),
		logging.Err(err))
	c.sendToDeadLetter(ctx, msg, err, attempts)
	return true
}

func (c *Consumer) sendToDeadLetter(ctx context.Context, msg *Message, cause error, attempts int) {
	if c.deadLetter == nil || c.config.DeadLetterTopic == "" {
		c.dropped.Add(1)
		return
	}
	headers := make(map[string]string, len(msg.Headers)+3)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderOriginalTopic] = msg.Topic
	headers[HeaderError] = cause.Error()
	headers[HeaderAttempts] = strconv.Itoa(attempts)

	dl := &ProducerMessage{Topic: c.config.DeadLetterTopic, Key: msg.Key, Value: msg.Value, Headers: headers}
	if err := c.deadLetter.Publish(ctx, dl); err != nil {
		c.logger.Error("dead-letter publish failed", logging.String("topic", c.config.DeadLetterTopic), logging.Err(err))
		c.dropped.Add(1)
		return
	}
	c.deadLettered.Add(1)
}

func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Consumed:     c.consumed.Load(),
		Processed:    c.processed.Load(),
		Retried:      c.retried.Load(),
		DeadLettered: c.deadLettered.Load(),
		Dropped:      c.dropped.Load(),
	}
}

// Close stops the loop, waits for the in-flight message and closes the reader.
func (c *Consumer) Close() error {
	if !c.running.CompareAndSwap(true, false) {
		return c.reader.Close()
	}
	c.cancel()
	c.wg.Wait()
	err := c.reader.Close()
	c.logger.Info("kafka consumer closed", logging.Int64("consumed", c.consumed.Load()))
	return err
}

func fromKafkaMessage(m kafka.Message) *Message {
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
	return msg
}

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

func ValidateConsumerConfig(cfg ConsumerConfig) error {
	if len(cfg.Brokers) == 0 {
		return errors.New(errors.ErrCodeValidation, "at least one broker is required")
	}
	if cfg.GroupID == "" {
		return errors.New(errors.ErrCodeValidation, "group id is required")
	}
	if len(cfg.Topics) == 0 {
		return errors.New(errors.ErrCodeValidation, "at least one topic is required")
	}
	switch cfg.StartOffset {
	case "", "earliest", "latest":
	default:
		return errors.Newf(errors.ErrCodeValidation, "unknown start offset %q", cfg.StartOffset)
	}
	if cfg.MaxRetries < 0 {
		return errors.New(errors.ErrCodeValidation, "max retries must be >= 0")
	}
	return nil
}

//Personal.AI order the ending
