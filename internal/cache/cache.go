// Package cache memoizes computed schedules keyed by a fingerprint of their
// financing terms.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/iwvelando/finance-schedule/internal/config"
	"go.uber.org/zap"
)

// Cache stores opaque payloads. A miss is reported by ok == false with a nil
// error.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// New builds the backend selected by conf.
func New(logger *zap.Logger, conf config.CacheConfig) (Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch conf.Backend {
	case "", config.CacheBackendNone:
		return Nop{}, nil
	case config.CacheBackendMemory:
		logger.Debug("using in-memory schedule cache",
			zap.String("op", "cache.New"),
			zap.Duration("ttl", conf.TTL),
		)
		return NewMemoryCache(conf.TTL), nil
	case config.CacheBackendRedis:
		logger.Debug(fmt.Sprintf("using redis schedule cache at %s", conf.RedisAddress),
			zap.String("op", "cache.New"),
			zap.Duration("ttl", conf.TTL),
		)
		return NewRedisCache(RedisOptions{
			Address:  conf.RedisAddress,
			Password: conf.RedisPassword,
			DB:       conf.RedisDB,
			TTL:      conf.TTL,
		}), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", conf.Backend)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (Nop) Set(context.Context, string, []byte) error { return nil }

func (Nop) Close() error { return nil }

// expiry returns the deadline for an entry written at now, or the zero time
// when entries never expire.
func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
