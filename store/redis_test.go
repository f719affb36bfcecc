package store_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go-storefront/models"
	"go-storefront/store"
	"go-storefront/store/memory"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RedisCacheSuite runs against a live server when REDIS_TEST_ADDR is set.
type RedisCacheSuite struct {
	suite.Suite
	ctx    context.Context
	client *redis.Client
	cache  *store.RedisCache
	prefix string
}

func TestRedisCacheSuite(t *testing.T) {
	if os.Getenv("REDIS_TEST_ADDR") == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.ctx = context.Background()
	client, err := store.NewRedisClient(s.ctx, os.Getenv("REDIS_TEST_ADDR"), os.Getenv("REDIS_TEST_PASSWORD"), 0)
	require.NoError(s.T(), err)
	s.client = client
	s.cache = store.NewRedisCache(client)
}

func (s *RedisCacheSuite) TearDownSuite() {
	_ = s.client.Close()
}

func (s *RedisCacheSuite) SetupTest() {
	s.prefix = fmt.Sprintf("storefront_test:%d:", time.Now().UnixNano())
}

func (s *RedisCacheSuite) TearDownTest() {
	keys, err := s.client.Keys(s.ctx, s.prefix+"*").Result()
	if err == nil && len(keys) > 0 {
		_ = s.client.Del(s.ctx, keys...).Err()
	}
}

func (s *RedisCacheSuite) TestMissingKeyIsCacheMiss() {
	_, err := s.cache.Get(s.ctx, s.prefix+"absent")
	s.ErrorIs(err, store.ErrCacheMiss)
}

func (s *RedisCacheSuite) TestSetGetDel() {
	key := s.prefix + "k"
	require.NoError(s.T(), s.cache.Set(s.ctx, key, []byte(`{"a":1}`), time.Minute))

	got, err := s.cache.Get(s.ctx, key)
	require.NoError(s.T(), err)
	s.Equal(`{"a":1}`, string(got))

	require.NoError(s.T(), s.cache.Del(s.ctx, key, s.prefix+"never-set"))
	_, err = s.cache.Get(s.ctx, key)
	s.ErrorIs(err, store.ErrCacheMiss)
}

func (s *RedisCacheSuite) TestEntriesExpire() {
	key := s.prefix + "short"
	require.NoError(s.T(), s.cache.Set(s.ctx, key, []byte("x"), 100*time.Millisecond))
	s.Eventually(func() bool {
		_, err := s.cache.Get(s.ctx, key)
		return err == store.ErrCacheMiss
	}, 2*time.Second, 50*time.Millisecond)
}

func (s *RedisCacheSuite) TestCachedProductStoreOverRedis() {
	backing := memory.New()
	products := store.NewCachedProductStore(backing, s.cache, time.Minute)
	p := &models.Product{Name: "lamp", Price: decimal.NewFromInt(900), Category: "Home"}
	require.NoError(s.T(), products.CreateProduct(s.ctx, p))

	got, err := products.GetProduct(s.ctx, p.ID)
	require.NoError(s.T(), err)
	s.Equal("lamp", got.Name)

	name := "desk lamp"
	_, err = products.UpdateProduct(s.ctx, p.ID, models.ProductUpdate{Name: &name})
	require.NoError(s.T(), err)
	got, err = products.GetProduct(s.ctx, p.ID)
	require.NoError(s.T(), err)
	s.Equal("desk lamp", got.Name)

	require.NoError(s.T(), products.DeleteProduct(s.ctx, p.ID))
	_, err = products.GetProduct(s.ctx, p.ID)
	s.ErrorIs(err, store.ErrNotFound)

	// Real catalog keys are shared, so clean them up here.
	_ = s.client.Del(s.ctx, "catalog:products", "catalog:product:"+p.ID.Hex()).Err()
}

func TestNewRedisClientFailsFast(t *testing.T) {
	if os.Getenv("REDIS_TEST_ADDR") == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := store.NewRedisClient(ctx, "127.0.0.1:1", "", 0)
	require.Error(t, err)
}
