package cache

//go:generate go run go.uber.org/mock/mockgen -source=./cache.go -destination=./mocks/cache_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"todo/infras/otel"
)

const (
	otelScopeName         = "cache"
	otelCacheKeyAttribute = "cache.key"
	Nil                   = redis.Nil

	generationSuffix = "generation"
	generationTTL    = 24 * time.Hour
)

// ErrStale is returned by Save when key was deleted after the caller read its generation.
var ErrStale = errors.New("cache value is stale")

// incrScript bumps a counter and starts its expiry only when the counter has none, so the window is
// fixed at the first hit.
var incrScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if redis.call("TTL", KEYS[1]) < 0 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return count
`)

type RedisCache interface {
	// Save stores value under key unless Delete ran on key after generation was read with Generation.
	Save(ctx context.Context, key string, value any, duration int, generation string) (err error)
	Get(ctx context.Context, key string, value any) (err error)
	// Generation returns the stamp the last Delete left on key, empty when there is none.
	Generation(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	// Incr counts a hit on key inside a fixed window of duration seconds opened by the first hit.
	Incr(ctx context.Context, key string, duration int) (int64, error)
}

type redisCache struct {
	client *redis.Client
	otel   otel.Otel
}

// NewRedisCache wraps client. A nil client yields a cache where every Get misses and every write is
// dropped.
func NewRedisCache(client *redis.Client, ot otel.Otel) RedisCache {
	if client == nil {
		return &noopCache{}
	}

	return &redisCache{
		client: client,
		otel:   ot,
	}
}

func generationKey(key string) string {
	return key + ":" + generationSuffix
}

// Delete implements RedisCache. It stamps a new generation on key so Saves based on an older read
// are dropped.
func (cache *redisCache) Delete(ctx context.Context, key string) (err error) {
	ctx, scope := cache.otel.NewScope(ctx, otelScopeName, otelScopeName+".Delete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute(otelCacheKeyAttribute, key)

	_, err = cache.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, generationKey(key), uuid.NewString(), generationTTL)
		pipe.Del(ctx, key)

		return nil
	})
	if err != nil {
		log.Error().Str("key", key).Err(err).Str("RedisCache", "Delete").Msg("failed to del cache")

		return fmt.Errorf("failed to delete cache value: %w", err)
	}

	return nil
}

// Get implements RedisCache. A missing key is reported as an error wrapping Nil.
func (cache *redisCache) Get(ctx context.Context, key string, value any) (err error) {
	ctx, scope := cache.otel.NewScope(ctx, otelScopeName, otelScopeName+".Get")
	defer scope.End()

	scope.SetAttribute(otelCacheKeyAttribute, key)

	cacheValue, err := cache.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, Nil) {
			scope.TraceError(err)
		}

		return fmt.Errorf("failed to get cache value: %w", err)
	}

	return decode(cacheValue, value)
}

// Generation implements RedisCache.
func (cache *redisCache) Generation(ctx context.Context, key string) (generation string, err error) {
	ctx, scope := cache.otel.NewScope(ctx, otelScopeName, otelScopeName+".Generation")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute(otelCacheKeyAttribute, key)

	generation, err = cache.client.Get(ctx, generationKey(key)).Result()
	if err != nil && !errors.Is(err, Nil) {
		return "", fmt.Errorf("failed to get cache generation: %w", err)
	}

	return generation, nil
}

// Save implements RedisCache. The write is dropped with ErrStale when the generation of key moved.
func (cache *redisCache) Save(ctx context.Context, key string, value any, duration int, generation string) (err error) {
	ctx, scope := cache.otel.NewScope(ctx, otelScopeName, otelScopeName+".Save")
	defer scope.End()
	defer func() {
		if !errors.Is(err, ErrStale) {
			scope.TraceIfError(err)
		}
	}()

	scope.SetAttribute(otelCacheKeyAttribute, key)

	strValue, err := encode(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Str("RedisCache", "Save").Msg("failed to marshal cache")

		return err
	}

	genKey := generationKey(key)

	err = cache.client.Watch(ctx, func(tx *redis.Tx) error {
		current, getErr := tx.Get(ctx, genKey).Result()
		if getErr != nil && !errors.Is(getErr, Nil) {
			return getErr
		}

		if current != generation {
			return ErrStale
		}

		_, execErr := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, strValue, time.Second*time.Duration(duration))

			return nil
		})

		return execErr
	}, genKey)

	switch {
	case errors.Is(err, ErrStale), errors.Is(err, redis.TxFailedErr):
		log.Debug().Str("RedisCache", "Save").Str("key", key).Msg("skip stale cache value")

		return ErrStale
	case err != nil:
		log.Error().Err(err).Str("key", key).Str("RedisCache", "Save").Msg("failed to set cache")

		return fmt.Errorf("failed to set cache value: %w", err)
	}

	log.Debug().Str("RedisCache", "Save").Str("key", key).Msg("success to set cache")

	return nil
}

// Incr implements RedisCache.
func (cache *redisCache) Incr(ctx context.Context, key string, duration int) (count int64, err error) {
	ctx, scope := cache.otel.NewScope(ctx, otelScopeName, otelScopeName+".Incr")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttribute(otelCacheKeyAttribute, key)

	count, err = incrScript.Run(ctx, cache.client, []string{key}, duration).Int64()
	if err != nil {
		log.Error().Err(err).Str("key", key).Str("RedisCache", "Incr").Msg("failed to increment cache counter")

		return 0, fmt.Errorf("failed to increment cache counter: %w", err)
	}

	return count, nil
}

func encode(value any) ([]byte, error) {
	if v, ok := value.(string); ok {
		return []byte(v), nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return raw, nil
}

func decode(cacheValue string, value any) error {
	if v, ok := value.(*string); ok {
		*v = cacheValue

		return nil
	}

	if err := json.Unmarshal([]byte(cacheValue), value); err != nil {
		log.Error().Err(err).Str("RedisCache", "Get").Msg("failed to unmarshal cache")

		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return nil
}

type noopCache struct{}

func (n *noopCache) Save(_ context.Context, _ string, _ any, _ int, _ string) error { return nil }
func (n *noopCache) Get(_ context.Context, _ string, _ any) error {
	return fmt.Errorf("failed to get cache value: %w", Nil)
}
func (n *noopCache) Generation(_ context.Context, _ string) (string, error) { return "", nil }
func (n *noopCache) Delete(_ context.Context, _ string) error { return nil }
func (n *noopCache) Incr(_ context.Context, _ string, _ int) (int64, error) { return 0, nil }
