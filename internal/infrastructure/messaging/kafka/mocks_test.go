package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
)

type mockWriter struct{ mock.Mock }

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

func (m *mockWriter) Close() error { return m.Called().Error(0) }

// mockReader serves queued messages, then blocks until ctx ends.
type mockReader struct {
	mock.Mock
	msgs chan kafka.Message
}

func newMockReader(msgs ...kafka.Message) *mockReader {
	r := &mockReader{msgs: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		r.msgs <- m
	}
	return r
}

func (m *mockReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case msg := <-m.msgs:
		return msg, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (m *mockReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	return m.Called(msgs).Error(0)
}

func (m *mockReader) Close() error { return m.Called().Error(0) }

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, msg *ProducerMessage) error {
	return m.Called(msg).Error(0)
}

type mockConn struct{ mock.Mock }

func (m *mockConn) CreateTopics(topics ...kafka.TopicConfig) error {
	return m.Called(topics).Error(0)
}

func (m *mockConn) ReadPartitions(topics ...string) ([]kafka.Partition, error) {
	args := m.Called(topics)
	p, _ := args.Get(0).([]kafka.Partition)
	return p, args.Error(1)
}

func (m *mockConn) Close() error { return m.Called().Error(0) }

//Personal.AI order the ending
