package xretry

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Strategy 退避策略类型
type Strategy int

// 退避策略常量
const (
	// StrategyExponential 指数退避：delay = min(BaseDelay * 2^(attempt-1), MaxDelay)
	StrategyExponential Strategy = iota

	// StrategyLinear 线性退避：delay = min(BaseDelay * attempt, MaxDelay)
	StrategyLinear

	// StrategyFixed 固定延迟：delay = min(BaseDelay, MaxDelay)
	StrategyFixed
)

// String 返回策略的可读字符串表示。
func (s Strategy) String() string {
	switch s {
	case StrategyExponential:
		return "exponential"
	case StrategyLinear:
		return "linear"
	case StrategyFixed:
		return "fixed"
	default:
		return "strategy(" + strconv.Itoa(int(s)) + ")"
	}
}

// Policy 重试策略配置
//
// Policy 是纯值对象，创建后只读，可在多个调用间共享。
// 零值不可直接使用，请从 DefaultPolicy() 出发修改，
// 或完整填写后通过 Validate() 校验。
type Policy struct {
	// MaxAttempts 最大尝试次数（包含首次尝试），必须 >= 1。
	MaxAttempts int

	// BaseDelay 退避基础延迟。
	BaseDelay time.Duration

	// MaxDelay 退避延迟上限。有效延迟（含抖动后）永远不会超过此值。
	// 0 表示不设上限。
	MaxDelay time.Duration

	// JitterRatio 抖动比例，取值 [0, 1]。
	// 实际延迟在 [delay*(1-ratio), delay*(1+ratio)] 内均匀分布。
	JitterRatio float64

	// Strategy 退避策略，默认 StrategyExponential。
	Strategy Strategy

	// RetryIf 重试判定谓词。返回 true 表示该错误可重试。
	// 为 nil 时使用默认判定（见 IsRetryable）。
	RetryIf func(error) bool
}

// DefaultPolicy 返回默认重试策略：
// 3 次尝试、100ms 基础延迟、30s 延迟上限、10% 抖动、指数退避。
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		JitterRatio: 0.1,
		Strategy:    StrategyExponential,
	}
}

// Validate 校验策略配置的合法性。
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts %d, must be >= 1", ErrInvalidPolicy, p.MaxAttempts)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("%w: negative base delay %s", ErrInvalidPolicy, p.BaseDelay)
	}
	if p.MaxDelay < 0 {
		return fmt.Errorf("%w: negative max delay %s", ErrInvalidPolicy, p.MaxDelay)
	}
	if p.MaxDelay > 0 && p.MaxDelay < p.BaseDelay {
		return fmt.Errorf("%w: max delay %s < base delay %s", ErrInvalidPolicy, p.MaxDelay, p.BaseDelay)
	}
	if p.JitterRatio < 0 || p.JitterRatio > 1 {
		return fmt.Errorf("%w: jitter ratio %v, must be in [0, 1]", ErrInvalidPolicy, p.JitterRatio)
	}
	switch p.Strategy {
	case StrategyExponential, StrategyLinear, StrategyFixed:
	default:
		return fmt.Errorf("%w: unknown strategy %v", ErrInvalidPolicy, p.Strategy)
	}
	return nil
}

// baseDelay 计算第 attempt 次失败后的基础延迟（不含抖动）。
// attempt 从 1 开始。
func (p Policy) baseDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	var delay float64
	switch p.Strategy {
	case StrategyLinear:
		delay = float64(p.BaseDelay) * float64(attempt)
	case StrategyFixed:
		delay = float64(p.BaseDelay)
	default:
		delay = float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	}

	// 设计决策: NaN/负数安全的上限钳制。attempt 极大时 math.Pow 溢出为 +Inf，
	// IEEE 754 中 NaN 的所有比较均返回 false，会绕过上限，
	// 因此显式兜底为上限值（语义为退避已达上限）。
	// MaxDelay 为 0 表示不设上限，此时兜底值取 Duration 的最大值。
	limit := p.maxDelayLimit()
	if math.IsNaN(delay) || delay < 0 || delay >= float64(limit) {
		return limit
	}
	return time.Duration(delay)
}

// maxDelayLimit 返回生效的延迟上限。MaxDelay <= 0 视为不设上限。
func (p Policy) maxDelayLimit() time.Duration {
	if p.MaxDelay <= 0 {
		return time.Duration(math.MaxInt64)
	}
	return p.MaxDelay
}

// Delays 返回策略的无抖动延迟表：第 i 项是第 i+1 次尝试失败后的等待时长。
// 表长为 MaxAttempts-1（最后一次尝试失败后不再等待）。
// 主要用于测试断言和配置审查，无需真实休眠即可验证退避序列。
func Delays(p Policy) []time.Duration {
	if p.MaxAttempts < 2 {
		return nil
	}
	delays := make([]time.Duration, 0, p.MaxAttempts-1)
	for attempt := 1; attempt < p.MaxAttempts; attempt++ {
		delays = append(delays, p.baseDelay(attempt))
	}
	return delays
}
