package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go-storefront/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	catalogListKey       = "catalog:products"
	catalogProductPrefix = "catalog:product:"
)

// ErrCacheMiss is returned by a CacheBackend when the key is absent.
var ErrCacheMiss = errors.New("cache: miss")

// CacheBackend is the slice of a key/value cache the catalog needs.
type CacheBackend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisCache adapts a go-redis client to CacheBackend.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// NewRedisClient connects to addr and pings it once.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return data, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

// CachedProductStore is a cache-aside decorator over a ProductStore.
// The whole catalog is cached under one key and filtered in memory; single
// products get their own key. Any write drops both. Cache failures are
// logged and the call falls through to the wrapped store.
type CachedProductStore struct {
	ProductStore
	cache CacheBackend
	ttl   time.Duration
}

func NewCachedProductStore(products ProductStore, cache CacheBackend, ttl time.Duration) *CachedProductStore {
	return &CachedProductStore{ProductStore: products, cache: cache, ttl: ttl}
}

func productKey(id primitive.ObjectID) string {
	return catalogProductPrefix + id.Hex()
}

func (s *CachedProductStore) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	var all []models.Product
	if s.load(ctx, catalogListKey, &all) {
		return filterProducts(all, filter), nil
	}

	all, err := s.ProductStore.ListProducts(ctx, models.ProductFilter{})
	if err != nil {
		return nil, err
	}
	s.store(ctx, catalogListKey, all)
	return filterProducts(all, filter), nil
}

func filterProducts(products []models.Product, filter models.ProductFilter) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if filter.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s *CachedProductStore) GetProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var cached models.Product
	if s.load(ctx, productKey(id), &cached) {
		return &cached, nil
	}

	product, err := s.ProductStore.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, productKey(id), product)
	return product, nil
}

func (s *CachedProductStore) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := s.ProductStore.CreateProduct(ctx, product); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CachedProductStore) UpdateProduct(ctx context.Context, id primitive.ObjectID, update models.ProductUpdate) (*models.Product, error) {
	product, err := s.ProductStore.UpdateProduct(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, productKey(id))
	return product, nil
}

func (s *CachedProductStore) DeleteProduct(ctx context.Context, id primitive.ObjectID) error {
	if err := s.ProductStore.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, productKey(id))
	return nil
}

func (s *CachedProductStore) load(ctx context.Context, key string, v any) bool {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache entry unreadable")
		return false
	}
	return true
}

func (s *CachedProductStore) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}

func (s *CachedProductStore) invalidate(ctx context.Context, keys ...string) {
	keys = append(keys, catalogListKey)
	if err := s.cache.Del(ctx, keys...); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Strs("keys", keys).Msg("catalog cache invalidation failed")
	}
}
