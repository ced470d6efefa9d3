package xresilconf

import (
	"fmt"
	"time"
)

// Profile 单个操作的弹性策略档案。
// 时长字段在 YAML/JSON 中以 Go 时长字符串表示（如 "60s"、"100ms"）。
type Profile struct {
	// FailureThreshold 连续失败多少次后熔断器打开
	FailureThreshold int `koanf:"failure_threshold"`

	// SuccessThreshold 半开状态下连续成功多少次后熔断器闭合
	SuccessThreshold int `koanf:"success_threshold"`

	// OpenTimeout 熔断器打开后的冷却时长
	OpenTimeout time.Duration `koanf:"open_timeout"`

	// MaxAttempts 最大尝试次数（包含首次）
	MaxAttempts int `koanf:"max_attempts"`

	// BaseDelay 重试退避基础延迟
	BaseDelay time.Duration `koanf:"base_delay"`

	// MaxDelay 重试退避延迟上限
	MaxDelay time.Duration `koanf:"max_delay"`

	// JitterRatio 退避抖动比例，取值 [0, 1]
	JitterRatio float64 `koanf:"jitter_ratio"`

	// CacheTTL 缓存条目的默认存活时长，0 表示永不过期
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// CacheCapacity 缓存容量（条目数）
	CacheCapacity int `koanf:"cache_capacity"`
}

// DefaultProfile 返回默认档案：
// 5 次失败熔断、1 次成功闭合、60s 冷却；3 次尝试、100ms 基础延迟、
// 30s 延迟上限、10% 抖动；缓存 5 分钟 TTL、1024 条目。
func DefaultProfile() Profile {
	return Profile{
		FailureThreshold: 5,
		SuccessThreshold: 1,
		OpenTimeout:      60 * time.Second,
		MaxAttempts:      3,
		BaseDelay:        100 * time.Millisecond,
		MaxDelay:         30 * time.Second,
		JitterRatio:      0.1,
		CacheTTL:         5 * time.Minute,
		CacheCapacity:    1024,
	}
}

// merge 把 override 的非零字段叠加在 p 之上，返回合并结果。
// 零值字段继承 p 的取值。
func (p Profile) merge(override Profile) Profile {
	out := p
	if override.FailureThreshold != 0 {
		out.FailureThreshold = override.FailureThreshold
	}
	if override.SuccessThreshold != 0 {
		out.SuccessThreshold = override.SuccessThreshold
	}
	if override.OpenTimeout != 0 {
		out.OpenTimeout = override.OpenTimeout
	}
	if override.MaxAttempts != 0 {
		out.MaxAttempts = override.MaxAttempts
	}
	if override.BaseDelay != 0 {
		out.BaseDelay = override.BaseDelay
	}
	if override.MaxDelay != 0 {
		out.MaxDelay = override.MaxDelay
	}
	if override.JitterRatio != 0 {
		out.JitterRatio = override.JitterRatio
	}
	if override.CacheTTL != 0 {
		out.CacheTTL = override.CacheTTL
	}
	if override.CacheCapacity != 0 {
		out.CacheCapacity = override.CacheCapacity
	}
	return out
}

// Validate 校验档案字段取值。
func (p Profile) Validate() error {
	if p.FailureThreshold < 1 {
		return fmt.Errorf("%w: failure_threshold %d, must be >= 1", ErrInvalidProfile, p.FailureThreshold)
	}
	if p.SuccessThreshold < 1 {
		return fmt.Errorf("%w: success_threshold %d, must be >= 1", ErrInvalidProfile, p.SuccessThreshold)
	}
	if p.OpenTimeout < 0 {
		return fmt.Errorf("%w: negative open_timeout %s", ErrInvalidProfile, p.OpenTimeout)
	}
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: max_attempts %d, must be >= 1", ErrInvalidProfile, p.MaxAttempts)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("%w: negative base_delay %s", ErrInvalidProfile, p.BaseDelay)
	}
	if p.MaxDelay < 0 {
		return fmt.Errorf("%w: negative max_delay %s", ErrInvalidProfile, p.MaxDelay)
	}
	if p.MaxDelay > 0 && p.BaseDelay > 0 && p.MaxDelay < p.BaseDelay {
		return fmt.Errorf("%w: max_delay %s < base_delay %s", ErrInvalidProfile, p.MaxDelay, p.BaseDelay)
	}
	if p.JitterRatio < 0 || p.JitterRatio > 1 {
		return fmt.Errorf("%w: jitter_ratio %v, must be in [0, 1]", ErrInvalidProfile, p.JitterRatio)
	}
	if p.CacheCapacity < 0 {
		return fmt.Errorf("%w: negative cache_capacity %d", ErrInvalidProfile, p.CacheCapacity)
	}
	return nil
}
