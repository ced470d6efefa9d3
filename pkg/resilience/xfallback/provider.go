package xfallback

import (
	"context"
	"fmt"
)

// =============================================================================
// Provider 接口定义
// =============================================================================

// Provider 定义单个降级提供者。
type Provider[V any] interface {
	// Name 返回提供者名称，用于错误信息与观测。
	Name() string

	// Resolve 尝试为 key 提供一个降级值。
	// 无法提供时返回错误，由降级链继续尝试下一个提供者。
	Resolve(ctx context.Context, key string) (V, error)
}

// =============================================================================
// 内置提供者
// =============================================================================

// Getter 缓存读取接口。xttl 的 Memory 与 Redis 均满足此接口。
type Getter[V any] interface {
	Get(ctx context.Context, key string) (V, error)
}

// cacheLookup 从缓存读取降级值。
type cacheLookup[V any] struct {
	getter Getter[V]
}

// NewCacheLookup 创建缓存读取提供者。
// 任何实现 Get(ctx, key) (V, error) 的缓存均可作为来源，
// 典型用法是 xttl.Memory 或 xttl.Redis 中的历史数据。
func NewCacheLookup[V any](getter Getter[V]) Provider[V] {
	return &cacheLookup[V]{getter: getter}
}

func (p *cacheLookup[V]) Name() string {
	return "cache-lookup"
}

func (p *cacheLookup[V]) Resolve(ctx context.Context, key string) (V, error) {
	var zero V
	if p.getter == nil {
		return zero, ErrNilProvider
	}
	return p.getter.Get(ctx, key)
}

// static 返回固定兜底值。
type static[V any] struct {
	value V
}

// NewStatic 创建静态兜底提供者，永远成功并返回固定值。
// 放在链尾可保证 Resolve 永不失败。
func NewStatic[V any](value V) Provider[V] {
	return &static[V]{value: value}
}

func (p *static[V]) Name() string {
	return "static"
}

func (p *static[V]) Resolve(_ context.Context, _ string) (V, error) {
	return p.value, nil
}

// source 调用备用数据源。
type source[V any] struct {
	name string
	fn   func(ctx context.Context, key string) (V, error)
}

// NewSource 创建备用数据源提供者，如镜像站点或降级 API。
// name 为空时使用 "source"，fn 为 nil 时 Resolve 返回 ErrNilProvider。
func NewSource[V any](name string, fn func(ctx context.Context, key string) (V, error)) Provider[V] {
	if name == "" {
		name = "source"
	}
	return &source[V]{name: name, fn: fn}
}

func (p *source[V]) Name() string {
	return p.name
}

func (p *source[V]) Resolve(ctx context.Context, key string) (V, error) {
	var zero V
	if p.fn == nil {
		return zero, fmt.Errorf("%w: source %q has no resolve function", ErrNilProvider, p.name)
	}
	return p.fn(ctx, key)
}
