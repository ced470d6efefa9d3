package xfallback

import (
	"context"
)

// Chain 有序降级链
//
// Chain 创建后只读，可在多个 goroutine 间并发使用。
// 提供者自身的并发安全由各提供者保证。
type Chain[V any] struct {
	providers []Provider[V]
}

// NewChain 创建降级链。nil 提供者会被静默跳过。
// 空链是合法的：Resolve 总是返回 *ExhaustedError。
func NewChain[V any](providers ...Provider[V]) *Chain[V] {
	filtered := make([]Provider[V], 0, len(providers))
	for _, p := range providers {
		if p != nil {
			filtered = append(filtered, p)
		}
	}
	return &Chain[V]{providers: filtered}
}

// Len 返回链中的提供者数量。
func (c *Chain[V]) Len() int {
	if c == nil {
		return 0
	}
	return len(c.providers)
}

// Names 返回链中提供者的名称，按尝试顺序排列。
func (c *Chain[V]) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Resolve 按声明顺序逐个尝试提供者，第一个成功的结果即为最终结果。
//
// cause 为上游主路径的失败原因（可为 nil），会作为 *ExhaustedError
// 的首个聚合错误，使调用方能通过 errors.Is 追溯到最初的失败。
// 每个提供者尝试之间都会检查 context，取消后立即返回 context 错误。
func (c *Chain[V]) Resolve(ctx context.Context, key string, cause error) (V, error) {
	var zero V
	if ctx == nil {
		return zero, ErrNilContext
	}

	var causes []error
	var tried []string
	if cause != nil {
		causes = append(causes, cause)
	}

	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		value, err := p.Resolve(ctx, key)
		if err == nil {
			return value, nil
		}
		tried = append(tried, p.Name())
		causes = append(causes, err)
	}

	return zero, &ExhaustedError{
		Key:       key,
		Providers: tried,
		Causes:    causes,
	}
}
