package matching

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/MolMatch/internal/domain/molecule"
	"github.com/turtacn/MolMatch/internal/infrastructure/database/redis"
	"github.com/turtacn/MolMatch/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolMatch/pkg/errors"
)

// memCache is a ResultCache over a map, round-tripping through JSON like
// the redis cache does.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return c.getErr
	}
	data, ok := c.entries[key]
	if !ok {
		return redis.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	c.ttls[key] = ttl
	return nil
}

func (c *memCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

type memStore struct {
	molecules map[string]*molecule.Molecule
	listErr   error
	// onFind, when set, runs before every lookup.
	onFind func(ctx context.Context, key string)
}

func (s *memStore) FindByKey(ctx context.Context, key string) (*molecule.Molecule, error) {
	if s.onFind != nil {
		s.onFind(ctx, key)
	}
	m, ok := s.molecules[key]
	if !ok {
		return nil, errors.New(errors.ErrCodeMoleculeNotFound, "molecule not found").WithDetail(key)
	}
	return m, nil
}

func (s *memStore) ListKeys(_ context.Context, prefix string, limit int) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var keys []string
	for k := range s.molecules {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(_ context.Context, msg *kafka.ProducerMessage) error {
	return m.Called(msg).Error(0)
}

// published decodes the payload of the i-th published message.
func (m *mockPublisher) published(i int, dest interface{}) (*kafka.ProducerMessage, error) {
	msg := m.Calls[i].Arguments.Get(0).(*kafka.ProducerMessage)
	env, err := kafka.MessageToEventEnvelope(&kafka.Message{Value: msg.Value})
	if err != nil {
		return msg, err
	}
	return msg, env.DecodePayload(dest)
}

//Personal.AI order the ending
