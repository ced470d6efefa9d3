package xttl

import (
	"context"
	"time"
)

// =============================================================================
// Cache 接口定义
// =============================================================================

// Cache 定义带 TTL 的键值缓存接口。
// Memory 与 Redis 均实现此接口，可互换使用。
type Cache[V any] interface {
	// Get 读取缓存条目。
	// key 不存在或已过期时返回 ErrMiss。
	Get(ctx context.Context, key string) (V, error)

	// Set 写入缓存条目。
	// ttl <= 0 表示永不过期。相同 key 覆盖旧条目并重置 TTL。
	Set(ctx context.Context, key string, value V, ttl time.Duration) error

	// Delete 删除缓存条目。key 不存在时不报错。
	Delete(ctx context.Context, key string) error

	// Close 关闭缓存，释放后台资源。
	Close() error
}

// =============================================================================
// 统计信息
// =============================================================================

// Stats 定义缓存的统计信息。
type Stats struct {
	// Hits 命中次数
	Hits uint64 `json:"hits"`

	// Misses 未命中次数（含读到已过期条目）
	Misses uint64 `json:"misses"`

	// Sets 写入次数
	Sets uint64 `json:"sets"`

	// Deletes 显式删除次数
	Deletes uint64 `json:"deletes"`

	// Expirations 因过期被移除的条目数
	Expirations uint64 `json:"expirations"`

	// Evictions 因容量不足被 LRU 淘汰的条目数
	Evictions uint64 `json:"evictions"`

	// Size 当前条目数（含尚未惰性清理的过期条目）
	Size int `json:"size"`

	// Capacity 容量上限
	Capacity int `json:"capacity"`

	// HitRate 命中率 (0.0 - 1.0)，无访问时为 0
	HitRate float64 `json:"hit_rate"`
}
