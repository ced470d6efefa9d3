package xbreaker

import (
	"errors"
	"fmt"
	"time"
)

// OpenError 熔断拒绝错误
//
// Allow 拒绝请求时返回此错误。它不代表一次真实的操作失败——
// 操作根本没有被执行，因此不应计入任何失败统计。
//
// 设计决策: Name/State/Cooldown 保留为导出字段，便于调用方在日志
// 和监控中直接读取剩余冷却时长并据此排期重试。
type OpenError struct {
	// Name 熔断器名称（操作键）
	Name string

	// State 拒绝发生时的熔断器状态（StateOpen 或 StateHalfOpen）
	State State

	// Cooldown 距离进入 HalfOpen 的剩余冷却时长。
	// HalfOpen 状态下被拒绝（探测请求在途）时为 0。
	Cooldown time.Duration
}

// Error 实现 error 接口
func (e *OpenError) Error() string {
	if e.State == StateHalfOpen {
		return fmt.Sprintf("xbreaker: breaker %q is half-open, probe in flight", e.Name)
	}
	return fmt.Sprintf("xbreaker: breaker %q is open, retry in %s", e.Name, e.Cooldown)
}

// Retryable 实现 xretry.RetryableError 接口
//
// 熔断拒绝不应被重试：下游服务不可用时重试只会空耗退避预算，
// 正确的做法是快速失败或走降级路径。
func (e *OpenError) Retryable() bool {
	return false
}

// IsOpen 检查错误链中是否包含熔断拒绝错误。
//
// 示例:
//
//	err := breaker.Allow()
//	if xbreaker.IsOpen(err) {
//	    return fallbackValue, nil // 走降级路径
//	}
func IsOpen(err error) bool {
	var oe *OpenError
	return errors.As(err, &oe)
}
