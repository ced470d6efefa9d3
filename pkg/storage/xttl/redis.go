package xttl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omeyang/reskit/pkg/observability/xevent"
)

// cacheNameRedis Redis 缓存在访问事件中的标识。
const cacheNameRedis = "redis"

// =============================================================================
// Redis 配置选项
// =============================================================================

// redisOptions 定义 Redis 缓存的配置选项。
type redisOptions struct {
	keyPrefix string
	observer  xevent.Observer
}

// RedisOption 定义配置 Redis 缓存的函数类型。
type RedisOption func(*redisOptions)

// WithKeyPrefix 设置 key 前缀，用于多租户或多缓存共享同一 Redis 实例。
// 默认无前缀。
func WithKeyPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		o.keyPrefix = prefix
	}
}

// WithRedisObserver 设置观测事件观察者，每次 Get 上报一条缓存访问事件。
// 传入 nil 会被静默忽略（默认丢弃事件）。
func WithRedisObserver(o xevent.Observer) RedisOption {
	return func(opts *redisOptions) {
		if o != nil {
			opts.observer = o
		}
	}
}

// =============================================================================
// Redis 实现
// =============================================================================

// Redis 基于 go-redis 的 TTL 缓存，值以 JSON 编码。
// 过期交由 Redis 原生 TTL 管理，适合跨进程共享的缓存层。
type Redis[V any] struct {
	client   redis.UniversalClient
	prefix   string
	observer xevent.Observer
}

var _ Cache[string] = (*Redis[string])(nil)

// NewRedis 创建 Redis TTL 缓存。client 为 nil 时返回 ErrNilClient。
func NewRedis[V any](client redis.UniversalClient, opts ...RedisOption) (*Redis[V], error) {
	if client == nil {
		return nil, ErrNilClient
	}

	options := &redisOptions{observer: xevent.Noop{}}
	for _, opt := range opts {
		opt(options)
	}
	return &Redis[V]{
		client:   client,
		prefix:   options.keyPrefix,
		observer: options.observer,
	}, nil
}

// key 拼接存储 key。
func (r *Redis[V]) key(key string) string {
	return r.prefix + key
}

// Get 读取缓存条目。key 不存在时返回 ErrMiss。
func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	if ctx == nil {
		return zero, ErrNilContext
	}

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.observer.CacheAccess(xevent.CacheEvent{Cache: cacheNameRedis, Key: key, Hit: false, At: time.Now()})
			return zero, ErrMiss
		}
		return zero, fmt.Errorf("xttl: redis get %q: %w", key, err)
	}

	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, fmt.Errorf("xttl: decode %q: %w", key, err)
	}
	r.observer.CacheAccess(xevent.CacheEvent{Cache: cacheNameRedis, Key: key, Hit: true, At: time.Now()})
	return value, nil
}

// Set 写入缓存条目。ttl <= 0 表示永不过期。
func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	if ctx == nil {
		return ErrNilContext
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("xttl: encode %q: %w", key, err)
	}

	if ttl < 0 {
		ttl = 0 // go-redis 中 0 表示不过期
	}
	if err := r.client.Set(ctx, r.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("xttl: redis set %q: %w", key, err)
	}
	return nil
}

// Delete 删除缓存条目。key 不存在时不报错。
func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	if ctx == nil {
		return ErrNilContext
	}

	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("xttl: redis del %q: %w", key, err)
	}
	return nil
}

// Close 关闭底层 Redis 连接。
func (r *Redis[V]) Close() error {
	return r.client.Close()
}
