package xevent

import (
	"time"
)

// =============================================================================
// 事件定义
// =============================================================================

// Outcome 操作的最终结局。
type Outcome string

// 操作结局常量
const (
	// OutcomeSuccess 主路径成功（可能经过重试）
	OutcomeSuccess Outcome = "success"

	// OutcomeFailure 主路径失败且降级链未能挽救
	OutcomeFailure Outcome = "failure"

	// OutcomeFallback 主路径失败但降级链提供了结果
	OutcomeFallback Outcome = "fallback"

	// OutcomeRejected 被熔断器直接拒绝，未执行操作
	OutcomeRejected Outcome = "rejected"
)

// OutcomeEvent 一次操作执行的最终结局事件。
type OutcomeEvent struct {
	// Key 操作标识
	Key string

	// Outcome 结局分类
	Outcome Outcome

	// At 事件发生时刻
	At time.Time

	// Err 失败原因（成功时为 nil）
	Err error
}

// TransitionEvent 熔断器状态迁移事件。
type TransitionEvent struct {
	// Key 操作标识（熔断器名称）
	Key string

	// From 迁移前状态
	From string

	// To 迁移后状态
	To string

	// At 迁移时刻
	At time.Time
}

// RetryEvent 一次失败后即将重试的事件。
type RetryEvent struct {
	// Key 操作标识
	Key string

	// Attempt 刚刚失败的尝试序号（从 1 开始）
	Attempt int

	// At 事件发生时刻
	At time.Time

	// Err 该次尝试的错误
	Err error
}

// CacheEvent 一次缓存访问事件。
type CacheEvent struct {
	// Cache 缓存标识（如 "memory"、"redis"）
	Cache string

	// Key 访问的 key
	Key string

	// Hit 是否命中
	Hit bool

	// At 访问时刻
	At time.Time
}

// =============================================================================
// Observer 接口定义
// =============================================================================

// Observer 定义弹性事件的观察者接口。
// 回调在事件发生方的 goroutine 中同步执行，实现必须并发安全且不阻塞。
type Observer interface {
	// OperationOutcome 记录一次操作的最终结局。
	OperationOutcome(e OutcomeEvent)

	// BreakerTransition 记录一次熔断器状态迁移。
	BreakerTransition(e TransitionEvent)

	// RetryAttempt 记录一次重试。
	RetryAttempt(e RetryEvent)

	// CacheAccess 记录一次缓存访问。
	CacheAccess(e CacheEvent)
}

// =============================================================================
// 内置观察者
// =============================================================================

// Noop 丢弃所有事件的观察者。
type Noop struct{}

var _ Observer = Noop{}

// OperationOutcome 实现 Observer 接口，不做任何事。
func (Noop) OperationOutcome(OutcomeEvent) {}

// BreakerTransition 实现 Observer 接口，不做任何事。
func (Noop) BreakerTransition(TransitionEvent) {}

// RetryAttempt 实现 Observer 接口，不做任何事。
func (Noop) RetryAttempt(RetryEvent) {}

// CacheAccess 实现 Observer 接口，不做任何事。
func (Noop) CacheAccess(CacheEvent) {}

// multi 扇出到多个观察者。
type multi struct {
	observers []Observer
}

var _ Observer = (*multi)(nil)

// Multi 创建扇出观察者，按顺序同步调用每个子观察者。
// nil 子观察者会被静默跳过。
func Multi(observers ...Observer) Observer {
	filtered := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	switch len(filtered) {
	case 0:
		return Noop{}
	case 1:
		return filtered[0]
	default:
		return &multi{observers: filtered}
	}
}

func (m *multi) OperationOutcome(e OutcomeEvent) {
	for _, o := range m.observers {
		o.OperationOutcome(e)
	}
}

func (m *multi) BreakerTransition(e TransitionEvent) {
	for _, o := range m.observers {
		o.BreakerTransition(e)
	}
}

func (m *multi) RetryAttempt(e RetryEvent) {
	for _, o := range m.observers {
		o.RetryAttempt(e)
	}
}

func (m *multi) CacheAccess(e CacheEvent) {
	for _, o := range m.observers {
		o.CacheAccess(e)
	}
}

// Funcs 函数适配器，未设置的回调会被忽略。
// 测试断言和轻量集成的首选。
type Funcs struct {
	OnOutcome    func(e OutcomeEvent)
	OnTransition func(e TransitionEvent)
	OnRetry      func(e RetryEvent)
	OnCache      func(e CacheEvent)
}

var _ Observer = Funcs{}

// OperationOutcome 实现 Observer 接口。
func (f Funcs) OperationOutcome(e OutcomeEvent) {
	if f.OnOutcome != nil {
		f.OnOutcome(e)
	}
}

// BreakerTransition 实现 Observer 接口。
func (f Funcs) BreakerTransition(e TransitionEvent) {
	if f.OnTransition != nil {
		f.OnTransition(e)
	}
}

// RetryAttempt 实现 Observer 接口。
func (f Funcs) RetryAttempt(e RetryEvent) {
	if f.OnRetry != nil {
		f.OnRetry(e)
	}
}

// CacheAccess 实现 Observer 接口。
func (f Funcs) CacheAccess(e CacheEvent) {
	if f.OnCache != nil {
		f.OnCache(e)
	}
}
