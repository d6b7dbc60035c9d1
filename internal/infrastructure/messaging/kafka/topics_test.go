package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/internal/testutil"
	pkgerrors "github.com/turtacn/MolMatch/pkg/errors"
)

type jobPayload struct {
	JobID string `json:"job_id"`
}

func TestDefaultTopics(t *testing.T) {
	topics := DefaultTopics(6, 3)
	require.Len(t, topics, 3)
	assert.Equal(t, TopicJobsRequested, topics[0].Name)
	assert.Equal(t, 6, topics[0].NumPartitions)
	assert.Equal(t, 1, topics[2].NumPartitions)
}

func TestEventEnvelope_RoundTrip(t *testing.T) {
	ctx := logging.WithRequestID(context.Background(), "req-9")
	env, err := NewEventEnvelope(ctx, EventJobRequested, "apiserver", jobPayload{JobID: "j-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "req-9", env.RequestID)
	assert.Equal(t, "v1", env.Version)

	pm, err := env.ToMessage(TopicJobsRequested, "j-1")
	require.NoError(t, err)
	assert.Equal(t, "j-1", string(pm.Key))
	assert.Equal(t, EventJobRequested, pm.Headers[HeaderEventType])
	assert.Equal(t, "apiserver", pm.Headers[HeaderSource])
	assert.Equal(t, "req-9", pm.Headers[HeaderRequestID])

	decoded, err := MessageToEventEnvelope(&Message{Value: pm.Value})
	require.NoError(t, err)
	assert.Equal(t, "req-9", decoded.RequestID)
	var p jobPayload
	require.NoError(t, decoded.DecodePayload(&p))
	assert.Equal(t, "j-1", p.JobID)
}

func TestEventEnvelope_NoRequestID(t *testing.T) {
	env, err := NewEventEnvelope(context.Background(), EventJobCompleted, "worker", jobPayload{})
	require.NoError(t, err)
	pm, err := env.ToMessage(TopicJobsCompleted, "j-2")
	require.NoError(t, err)
	_, ok := pm.Headers[HeaderRequestID]
	assert.False(t, ok)
}

func TestEventEnvelope_BadInput(t *testing.T) {
	_, err := MessageToEventEnvelope(&Message{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeJobPayloadInvalid))

	_, err = MessageToEventEnvelope(&Message{Value: []byte("nope")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeJobPayloadInvalid))

	var p jobPayload
	err = (&EventEnvelope{}).DecodePayload(&p)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeJobPayloadInvalid))
}

func TestTopicManager_CreateTopic(t *testing.T) {
	conn := &mockConn{}
	conn.On("ReadPartitions", []string{"jobs"}).Return(nil, errors.New("unknown topic"))
	conn.On("CreateTopics", mock.MatchedBy(func(cfgs []kafka.TopicConfig) bool {
		return len(cfgs) == 1 && cfgs[0].Topic == "jobs" && cfgs[0].NumPartitions == 3 &&
			len(cfgs[0].ConfigEntries) == 1 && cfgs[0].ConfigEntries[0].ConfigValue == "1000"
	})).Return(nil).Once()

	m := &TopicManager{conn: conn, logger: testutil.NewMockLogger()}
	require.NoError(t, m.CreateTopic(context.Background(), TopicConfig{Name: "jobs", NumPartitions: 3, ReplicationFactor: 1, RetentionMs: 1000}))
	conn.AssertExpectations(t)
}

func TestTopicManager_CreateTopicExisting(t *testing.T) {
	conn := &mockConn{}
	conn.On("ReadPartitions", []string{"jobs"}).Return([]kafka.Partition{{Topic: "jobs"}}, nil)

	m := &TopicManager{conn: conn, logger: testutil.NewMockLogger()}
	require.NoError(t, m.CreateTopic(context.Background(), TopicConfig{Name: "jobs", NumPartitions: 1, ReplicationFactor: 1}))
	conn.AssertNotCalled(t, "CreateTopics", mock.Anything)
}

func TestTopicManager_CreateTopicInvalid(t *testing.T) {
	m := &TopicManager{conn: &mockConn{}, logger: testutil.NewMockLogger()}
	assert.Error(t, m.CreateTopic(context.Background(), TopicConfig{}))
	assert.Error(t, m.CreateTopic(context.Background(), TopicConfig{Name: "x"}))
}

func TestTopicManager_EnsureTopicsStopsOnError(t *testing.T) {
	conn := &mockConn{}
	conn.On("ReadPartitions", mock.Anything).Return(nil, errors.New("unknown topic"))
	conn.On("CreateTopics", mock.Anything).Return(errors.New("not controller")).Once()

	m := &TopicManager{conn: conn, logger: testutil.NewMockLogger()}
	err := m.EnsureTopics(context.Background(), DefaultTopics(1, 1))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeMessageQueueError))
	conn.AssertNumberOfCalls(t, "CreateTopics", 1)
}

//Personal.AI order the ending
