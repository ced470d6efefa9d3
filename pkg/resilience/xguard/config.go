package xguard

import (
	"fmt"
	"time"

	"github.com/omeyang/reskit/pkg/config/xresilconf"
	"github.com/omeyang/reskit/pkg/resilience/xfallback"
	"github.com/omeyang/reskit/pkg/resilience/xretry"
)

// Config 单个操作键的弹性配置
//
// 零值字段使用默认值：熔断阈值 5/1、冷却 60s、默认重试策略。
// 同一键首次 Execute 时配置被校验并固化，之后不可变更。
type Config[V any] struct {
	// FailureThreshold 连续失败多少次后熔断器打开。0 表示使用默认值 5。
	FailureThreshold uint32

	// SuccessThreshold 半开状态下连续成功多少次后闭合。0 表示使用默认值 1。
	SuccessThreshold uint32

	// OpenTimeout 熔断器打开后的冷却时长。0 表示使用默认值 60s。
	OpenTimeout time.Duration

	// Retry 重试策略。零值表示使用 xretry.DefaultPolicy()。
	Retry xretry.Policy

	// Fallbacks 降级提供者，按声明顺序尝试。可为空（失败直接上浮）。
	Fallbacks []xfallback.Provider[V]
}

// normalize 返回填充默认值后的配置副本。
// MaxAttempts 为 0 视为未配置重试策略，整体回退默认策略（保留 RetryIf）。
func (c Config[V]) normalize() Config[V] {
	out := c
	if out.Retry.MaxAttempts == 0 {
		retryIf := out.Retry.RetryIf
		out.Retry = xretry.DefaultPolicy()
		out.Retry.RetryIf = retryIf
	}
	return out
}

// validate 校验配置。熔断参数的零值在 xbreaker 内部回退默认值，
// 只需校验重试策略。
func (c Config[V]) validate() error {
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ConfigFromProfile 从 xresilconf 档案构建配置。
// providers 为该操作的降级链，按声明顺序尝试。
func ConfigFromProfile[V any](p xresilconf.Profile, providers ...xfallback.Provider[V]) Config[V] {
	return Config[V]{
		FailureThreshold: safeThreshold(p.FailureThreshold),
		SuccessThreshold: safeThreshold(p.SuccessThreshold),
		OpenTimeout:      p.OpenTimeout,
		Retry: xretry.Policy{
			MaxAttempts: p.MaxAttempts,
			BaseDelay:   p.BaseDelay,
			MaxDelay:    p.MaxDelay,
			JitterRatio: p.JitterRatio,
			Strategy:    xretry.StrategyExponential,
		},
		Fallbacks: providers,
	}
}

// safeThreshold 将档案中的 int 阈值转换为 uint32，非正值返回 0（用默认值）。
func safeThreshold(n int) uint32 {
	if n <= 0 {
		return 0
	}
	return uint32(n)
}
