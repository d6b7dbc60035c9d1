package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/alicebob/miniredis/v2"

	"github.com/turtacn/MolMatch/internal/config"
	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/MolMatch/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	cache Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	client := NewClientFromUniversal(db, "test:", logging.NewNopLogger())
	s.cache = NewRedisCache(client, logging.NewNopLogger(), WithJitter(0))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

type cachedResult struct {
	Status   string  `json:"status"`
	Mappings [][]int `json:"mappings"`
}

func (s *CacheTestSuite) TestGet_Hit() {
	val := cachedResult{Status: "COMPLETE", Mappings: [][]int{{0, 1}}}
	data, _ := json.Marshal(val)
	s.mock.ExpectGet("test:cache:key1").SetVal(string(data))

	var dest cachedResult
	s.Require().NoError(s.cache.Get(context.Background(), "key1", &dest))
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:cache:key1").RedisNil()

	var dest cachedResult
	err := s.cache.Get(context.Background(), "key1", &dest)
	s.Equal(ErrCacheMiss, err)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestGet_NullMarker() {
	s.mock.ExpectGet("test:cache:key1").SetVal(nullMarker)

	var dest cachedResult
	s.Equal(ErrCacheMiss, s.cache.Get(context.Background(), "key1", &dest))
}

func (s *CacheTestSuite) TestGet_CorruptValue() {
	s.mock.ExpectGet("test:cache:key1").SetVal("{not json")

	var dest cachedResult
	err := s.cache.Get(context.Background(), "key1", &dest)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestGet_RedisError() {
	s.mock.ExpectGet("test:cache:key1").SetErr(fmt.Errorf("connection reset"))

	var dest cachedResult
	err := s.cache.Get(context.Background(), "key1", &dest)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
	s.NotEqual(ErrCacheMiss, err)
}

func (s *CacheTestSuite) TestSet_Success() {
	val := cachedResult{Status: "NO_MATCH", Mappings: [][]int{}}
	data, _ := json.Marshal(val)
	s.mock.ExpectSet("test:cache:key1", data, time.Minute).SetVal("OK")

	s.NoError(s.cache.Set(context.Background(), "key1", val, time.Minute))
}

func (s *CacheTestSuite) TestSet_Unencodable() {
	err := s.cache.Set(context.Background(), "key1", make(chan int), time.Minute)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:cache:k1", "test:cache:k2").SetVal(2)
	s.NoError(s.cache.Delete(context.Background(), "k1", "k2"))
	s.NoError(s.cache.Delete(context.Background()))
}

func (s *CacheTestSuite) TestExists() {
	s.mock.ExpectExists("test:cache:k1").SetVal(1)
	ok, err := s.cache.Exists(context.Background(), "k1")
	s.NoError(err)
	s.True(ok)
}

func (s *CacheTestSuite) TestGetOrSet_Hit() {
	val := cachedResult{Status: "COMPLETE"}
	data, _ := json.Marshal(val)
	s.mock.ExpectGet("test:cache:key1").SetVal(string(data))

	called := false
	var dest cachedResult
	err := s.cache.GetOrSet(context.Background(), "key1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		called = true
		return nil, nil
	})
	s.NoError(err)
	s.False(called)
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestGetOrSet_MissLoadsAndStores() {
	val := cachedResult{Status: "TIMED_OUT", Mappings: [][]int{{2, 3}}}
	data, _ := json.Marshal(val)
	s.mock.ExpectGet("test:cache:key1").RedisNil()
	s.mock.ExpectSet("test:cache:key1", data, time.Minute).SetVal("OK")

	var dest cachedResult
	err := s.cache.GetOrSet(context.Background(), "key1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return val, nil
	})
	s.NoError(err)
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestGetOrSet_LoaderNil() {
	s.mock.ExpectGet("test:cache:key1").RedisNil()
	s.mock.ExpectSet("test:cache:key1", nullMarker, 30*time.Second).SetVal("OK")

	var dest cachedResult
	err := s.cache.GetOrSet(context.Background(), "key1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, nil
	})
	s.Equal(ErrCacheMiss, err)
}

func (s *CacheTestSuite) TestGetOrSet_LoaderError() {
	s.mock.ExpectGet("test:cache:key1").RedisNil()

	boom := pkgerrors.New(pkgerrors.ErrCodeMatchFailed, "boom")
	var dest cachedResult
	err := s.cache.GetOrSet(context.Background(), "key1", &dest, time.Minute, func(context.Context) (interface{}, error) {
		return nil, boom
	})
	s.Equal(boom, err)
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestCache_Jitter(t *testing.T) {
	c := &redisCache{jitter: 0.1}
	for i := 0; i < 100; i++ {
		got := c.ttl(time.Minute)
		assert.GreaterOrEqual(t, got, 54*time.Second)
		assert.LessOrEqual(t, got, 66*time.Second)
	}
	assert.Equal(t, time.Duration(0), c.ttl(0))
}

func TestCache_GetOrSet_CollapsesConcurrentLoads(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewClient(config.RedisConfig{Addr: mr.Addr(), KeyPrefix: "t:"}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()
	cache := NewRedisCache(client, nil)

	var loads int32
	release := make(chan struct{})
	loader := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&loads, 1)
		<-release
		return cachedResult{Status: "COMPLETE"}, nil
	}

	var wg sync.WaitGroup
	results := make([]cachedResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, cache.GetOrSet(context.Background(), "shared", &results[i], time.Minute, loader))
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
	for _, r := range results {
		assert.Equal(t, "COMPLETE", r.Status)
	}
	assert.True(t, mr.Exists("t:cache:shared"))
}

//Personal.AI order the ending
