package kafka

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolMatch/internal/config"
	"github.com/turtacn/MolMatch/internal/testutil"
	pkgerrors "github.com/turtacn/MolMatch/pkg/errors"
)

func testConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Brokers:         []string{"localhost:9092"},
		GroupID:         "molmatch-worker",
		Topics:          []string{TopicJobsRequested},
		MaxRetries:      2,
		RetryBackoff:    time.Millisecond,
		MaxRetryBackoff: 2 * time.Millisecond,
		DeadLetterTopic: TopicJobsDeadLetter,
	}
}

func jobMessage(offset int64) kafka.Message {
	return kafka.Message{
		Topic:   TopicJobsRequested,
		Offset:  offset,
		Key:     []byte("job"),
		Value:   []byte(`{"event_id":"e"}`),
		Headers: []kafka.Header{{Key: "request_id", Value: []byte("req-1")}},
	}
}

// runUntil starts c and waits for cond, then closes c.
func runUntil(t *testing.T, c *Consumer, cond func() bool) {
	t.Helper()
	require.NoError(t, c.Start(context.Background()))
	assert.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
}

func TestValidateConsumerConfig(t *testing.T) {
	ok := testConsumerConfig()
	assert.NoError(t, ValidateConsumerConfig(ok))

	for name, mutate := range map[string]func(*ConsumerConfig){
		"no brokers":       func(c *ConsumerConfig) { c.Brokers = nil },
		"no group":         func(c *ConsumerConfig) { c.GroupID = "" },
		"no topics":        func(c *ConsumerConfig) { c.Topics = nil },
		"bad offset":       func(c *ConsumerConfig) { c.StartOffset = "middle" },
		"negative retries": func(c *ConsumerConfig) { c.MaxRetries = -1 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := testConsumerConfig()
			mutate(&cfg)
			assert.True(t, pkgerrors.IsCode(ValidateConsumerConfig(cfg), pkgerrors.ErrCodeValidation))
		})
	}
}

func TestConsumerConfigFrom(t *testing.T) {
	cfg := ConsumerConfigFrom(config.KafkaConfig{Brokers: []string{"a:1"}, GroupID: "g", MaxRetries: 4},
		TopicJobsDeadLetter, TopicJobsRequested)
	assert.Equal(t, []string{TopicJobsRequested}, cfg.Topics)
	assert.Equal(t, TopicJobsDeadLetter, cfg.DeadLetterTopic)
	assert.Equal(t, 4, cfg.MaxRetries)
}

func TestConsumer_HandlesAndCommits(t *testing.T) {
	r := newMockReader(jobMessage(1), jobMessage(2))
	r.On("CommitMessages", mock.Anything).Return(nil)
	r.On("Close").Return(nil)

	c := newConsumer(r, testConsumerConfig(), nil, testutil.NewMockLogger())
	var seen atomic.Int32
	c.Subscribe(TopicJobsRequested, func(_ context.Context, msg *Message) error {
		assert.Equal(t, "req-1", msg.Headers["request_id"])
		seen.Add(1)
		return nil
	})

	runUntil(t, c, func() bool { return c.Stats().Processed == 2 })
	assert.Equal(t, int32(2), seen.Load())
	r.AssertNumberOfCalls(t, "CommitMessages", 2)
}

func TestConsumer_RetriesThenSucceeds(t *testing.T) {
	r := newMockReader(jobMessage(1))
	r.On("CommitMessages", mock.Anything).Return(nil)
	r.On("Close").Return(nil)

	c := newConsumer(r, testConsumerConfig(), nil, nil)
	var calls atomic.Int32
	c.Subscribe(TopicJobsRequested, func(context.Context, *Message) error {
		if calls.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	})

	runUntil(t, c, func() bool { return c.Stats().Processed == 1 })
	assert.Equal(t, int64(2), c.Stats().Retried)
	assert.Zero(t, c.Stats().DeadLettered)
}

func TestConsumer_DeadLettersAfterRetries(t *testing.T) {
	r := newMockReader(jobMessage(7))
	r.On("CommitMessages", mock.Anything).Return(nil)
	r.On("Close").Return(nil)

	dlq := &mockPublisher{}
	dlq.On("Publish", mock.MatchedBy(func(m *ProducerMessage) bool {
		return m.Topic == TopicJobsDeadLetter &&
			m.Headers[HeaderOriginalTopic] == TopicJobsRequested &&
			m.Headers[HeaderError] == "still broken" &&
			m.Headers[HeaderAttempts] == "3" &&
			m.Headers["request_id"] == "req-1"
	})).Return(nil).Once()

	c := newConsumer(r, testConsumerConfig(), dlq, testutil.NewMockLogger())
	var calls atomic.Int32
	c.Subscribe(TopicJobsRequested, func(context.Context, *Message) error {
		calls.Add(1)
		return errors.New("still broken")
	})

	runUntil(t, c, func() bool { return c.Stats().DeadLettered == 1 })
	assert.Equal(t, int32(3), calls.Load())
	dlq.AssertExpectations(t)
	r.AssertNumberOfCalls(t, "CommitMessages", 1)
}

func TestConsumer_NonRetryableSkipsRetries(t *testing.T) {
	r := newMockReader(jobMessage(1))
	r.On("CommitMessages", mock.Anything).Return(nil)
	r.On("Close").Return(nil)

	dlq := &mockPublisher{}
	dlq.On("Publish", mock.Anything).Return(nil).Once()

	c := newConsumer(r, testConsumerConfig(), dlq, nil)
	var calls atomic.Int32
	c.Subscribe(TopicJobsRequested, func(context.Context, *Message) error {
		calls.Add(1)
		return NonRetryable(pkgerrors.New(pkgerrors.ErrCodeJobPayloadInvalid, "bad payload"))
	})

	runUntil(t, c, func() bool { return c.Stats().DeadLettered == 1 })
	assert.Equal(t, int32(1), calls.Load())
	assert.Zero(t, c.Stats().Retried)
}

func TestConsumer_NoHandlerDropsAndCommits(t *testing.T) {
	msg := jobMessage(1)
	msg.Topic = "other"
	r := newMockReader(msg)
	r.On("CommitMessages", mock.Anything).Return(nil)
	r.On("Close").Return(nil)

	c := newConsumer(r, testConsumerConfig(), nil, nil)
	runUntil(t, c, func() bool { return c.Stats().Dropped == 1 })
	r.AssertNumberOfCalls(t, "CommitMessages", 1)
}

func TestConsumer_StartTwice(t *testing.T) {
	r := newMockReader()
	r.On("Close").Return(nil)

	c := newConsumer(r, testConsumerConfig(), nil, nil)
	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, ErrAlreadyRunning, c.Start(context.Background()))
	require.NoError(t, c.Close())
}

func TestNonRetryable(t *testing.T) {
	base := pkgerrors.New(pkgerrors.ErrCodeJobPayloadInvalid, "bad")
	err := NonRetryable(base)
	assert.True(t, IsNonRetryable(err))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeJobPayloadInvalid))
	assert.False(t, IsNonRetryable(base))
	assert.Nil(t, NonRetryable(nil))
}

//Personal.AI order the ending
