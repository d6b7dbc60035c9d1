package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/pkg/errors"
)

const (
	TopicJobsRequested  = "molmatch.jobs.requested"
	TopicJobsCompleted  = "molmatch.jobs.completed"
	TopicJobsDeadLetter = "molmatch.jobs.dlq"
)

// Message header keys.
const (
	HeaderEventType = "event_type"
	HeaderSource    = "source"
	HeaderRequestID = logging.FieldRequestID
)

// Envelope event types.
const (
	EventJobRequested = "match.job.requested"
	EventJobCompleted = "match.job.completed"
)

const envelopeVersion = "v1"

// EventEnvelope is the value of every job message. RequestID is the
// X-Request-ID of the API call that submitted the job; the worker copies it
// onto the completion event.
type EventEnvelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Version   string          `json:"version"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEventEnvelope encodes payload. The request ID is taken from ctx.
func NewEventEnvelope(ctx context.Context, eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal payload")
	}
	return &EventEnvelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Version:   envelopeVersion,
		RequestID: logging.RequestIDFromContext(ctx),
		Payload:   data,
	}, nil
}

// DecodePayload unmarshals the payload into target. A missing payload is an
// error because every MolMatch event carries one.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeJobPayloadInvalid, "event has no payload")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeJobPayloadInvalid, "failed to decode payload")
	}
	return nil
}

// ToMessage encodes the envelope for topic, keyed by key so related events
// share a partition.
func (e *EventEnvelope) ToMessage(topic, key string) (*ProducerMessage, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	// Headers let brokers and tooling route without decoding the value.
	headers := map[string]string{
		HeaderEventType: e.EventType,
		HeaderSource:    e.Source,
	}
	if e.RequestID != "" {
		headers[HeaderRequestID] = e.RequestID
	}
	return &ProducerMessage{Topic: topic, Key: []byte(key), Value: val, Headers: headers, Timestamp: e.Timestamp}, nil
}

func MessageToEventEnvelope(msg *Message) (*EventEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeJobPayloadInvalid, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeJobPayloadInvalid, "failed to unmarshal envelope")
	}
	return &env, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Topic management
// ─────────────────────────────────────────────────────────────────────────────

// TopicConfig describes a topic to create.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

// NewTopicManager dials the first broker.
func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessageQueueError, "failed to dial kafka")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TopicManager{conn: conn, logger: logger}, nil
}

func (m *TopicManager) CreateTopic(ctx context.Context, cfg TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.ErrCodeValidation, "topic name required")
	}
	if cfg.NumPartitions <= 0 || cfg.ReplicationFactor <= 0 {
		return errors.Newf(errors.ErrCodeValidation, "topic %s: partitions and replication factor must be > 0", cfg.Name)
	}
	if ok, _ := m.TopicExists(ctx, cfg.Name); ok {
		return nil
	}

	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries,
			kafka.ConfigEntry{ConfigName: "retention.ms", ConfigValue: strconv.FormatInt(cfg.RetentionMs, 10)})
	}
	if err := m.conn.CreateTopics(kCfg); err != nil {
		if err == kafka.TopicAlreadyExists {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeMessageQueueError, "failed to create topic").WithDetail(cfg.Name)
	}
	m.logger.Info("topic created", logging.String("topic", cfg.Name), logging.Int("partitions", cfg.NumPartitions))
	return nil
}

func (m *TopicManager) TopicExists(ctx context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

func (m *TopicManager) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	for _, topic := range topics {
		if err := m.CreateTopic(ctx, topic); err != nil {
			return err
		}
	}
	return nil
}

func (m *TopicManager) Close() error { return m.conn.Close() }

// DefaultTopics lists the job topics with the given sizing.
func DefaultTopics(partitions, replication int) []TopicConfig {
	const day = int64(24 * time.Hour / time.Millisecond)
	return []TopicConfig{
		{Name: TopicJobsRequested, NumPartitions: partitions, ReplicationFactor: replication, RetentionMs: 7 * day},
		{Name: TopicJobsCompleted, NumPartitions: partitions, ReplicationFactor: replication, RetentionMs: 7 * day},
		{Name: TopicJobsDeadLetter, NumPartitions: 1, ReplicationFactor: replication, RetentionMs: 30 * day},
	}
}

//Personal.AI order the ending
