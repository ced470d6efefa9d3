package xbreaker

import (
	"strconv"
	"sync"
	"time"
)

// State 熔断器状态
type State int32

// 熔断器状态常量
const (
	// StateClosed 关闭状态（正常）
	// 请求正常通过，连续失败会被统计
	StateClosed State = iota

	// StateOpen 打开状态（熔断）
	// 请求直接被拒绝，不会调用后端服务
	StateOpen

	// StateHalfOpen 半开状态（探测）
	// 只放行一个探测请求以检测服务是否恢复
	StateHalfOpen
)

// String 返回状态的可读字符串表示，用于日志和监控标签。
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Counts 统计计数
//
// 计数只对当前状态有意义：Closed 状态统计连续失败，
// HalfOpen 状态统计连续成功，状态转换时全部清零。
type Counts struct {
	// ConsecutiveFailures 连续失败次数
	ConsecutiveFailures uint32

	// ConsecutiveSuccesses 连续成功次数
	ConsecutiveSuccesses uint32
}

// Status 熔断器状态快照，用于健康检查和日志输出。
type Status struct {
	// Name 熔断器名称（操作键）
	Name string `json:"name"`

	// State 当前状态
	State State `json:"-"`

	// StateText 当前状态的字符串表示
	StateText string `json:"state"`

	// Counts 当前统计计数
	Counts Counts `json:"counts"`

	// OpenedAt 进入 Open 状态的时刻；非 Open 状态时为零值
	OpenedAt time.Time `json:"opened_at,omitzero"`

	// RemainingCooldown 距离进入 HalfOpen 还需等待的时长；非 Open 状态时为 0
	RemainingCooldown time.Duration `json:"remaining_cooldown"`

	// FailureThreshold 触发熔断的连续失败阈值
	FailureThreshold uint32 `json:"failure_threshold"`

	// SuccessThreshold 半开恢复所需的连续成功阈值
	SuccessThreshold uint32 `json:"success_threshold"`

	// OpenTimeout Open 状态的冷却时长
	OpenTimeout time.Duration `json:"open_timeout"`
}

// StateChangeFunc 状态变化回调函数类型。
//
// at 为转换发生的时刻（使用熔断器时钟）。
// 回调在熔断器内部锁内同步执行，严禁在回调中调用熔断器自身的任何方法，
// 否则会死锁；应避免耗时操作（如网络 I/O）。
type StateChangeFunc func(name string, from, to State, at time.Time)

// 默认配置
const (
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 1
	defaultOpenTimeout      = 60 * time.Second
)

// Breaker 按操作维度的熔断器
//
// 单个 Breaker 守护一个操作键，内部使用独立互斥锁，
// 不同操作键的熔断器之间互不竞争（锁粒度为键级）。
// Allow/RecordSuccess/RecordFailure 对同一实例的并发调用是原子的：
// 任意时刻只有一个调用者能观察和修改状态与计数。
type Breaker struct {
	name             string
	failureThreshold uint32
	successThreshold uint32
	openTimeout      time.Duration
	now              func() time.Time
	onStateChange    StateChangeFunc

	mu       sync.Mutex
	state    State
	counts   Counts
	openedAt time.Time
	probing  bool // HalfOpen 探测请求是否在途
}

// Option 熔断器配置选项
type Option func(*Breaker)

// WithFailureThreshold 设置触发熔断的连续失败阈值。
// 非正值会被静默忽略（保持默认值 5）。
func WithFailureThreshold(n uint32) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold 设置半开恢复所需的连续成功阈值。
// 非正值会被静默忽略（保持默认值 1）。
func WithSuccessThreshold(n uint32) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// WithOpenTimeout 设置 Open 状态的冷却时长，冷却期满后进入 HalfOpen。
// 非正值会被静默忽略（保持默认值 60 秒）。
func WithOpenTimeout(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.openTimeout = d
		}
	}
}

// WithOnStateChange 设置状态变化回调。
// 可用于日志记录、指标上报等。回调约束见 StateChangeFunc 文档。
func WithOnStateChange(f StateChangeFunc) Option {
	return func(b *Breaker) {
		if f != nil {
			b.onStateChange = f
		}
	}
}

// WithClock 设置时钟函数，主要用于测试注入确定性时间。
// nil 会被静默忽略（保持 time.Now）。
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// NewBreaker 创建熔断器
//
// name 是熔断器守护的操作键，用于错误信息、日志和监控标识。
// 默认配置：连续失败 5 次熔断，冷却 60 秒，半开 1 次成功恢复。
func NewBreaker(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
		openTimeout:      defaultOpenTimeout,
		now:              time.Now,
		state:            StateClosed,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Allow 申请执行许可
//
// 返回 nil 表示放行，调用方执行完毕后必须通过 RecordSuccess 或
// RecordFailure 上报结果；若放行后未执行任何操作（例如 context 已取消），
// 必须调用 ProbeAbort 释放半开探测名额。
//
// 返回 *OpenError 表示拒绝：
//   - Open 状态且冷却未满：Cooldown 为剩余冷却时长
//   - HalfOpen 状态且探测请求在途：Cooldown 为 0，探测结束后可立即重试
//
// Open 状态下冷却期满的首个 Allow 会将状态转换为 HalfOpen
// 并作为探测请求放行；同一时刻的其他并发调用者均被拒绝。
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil

	case StateOpen:
		now := b.now()
		remaining := b.openTimeout - now.Sub(b.openedAt)
		if remaining > 0 {
			return &OpenError{Name: b.name, State: StateOpen, Cooldown: remaining}
		}
		// 冷却期满，转换为半开并放行当前调用者作为探测请求
		b.transition(StateHalfOpen, now)
		b.probing = true
		return nil

	default: // StateHalfOpen
		if b.probing {
			return &OpenError{Name: b.name, State: StateHalfOpen, Cooldown: 0}
		}
		b.probing = true
		return nil
	}
}

// RecordSuccess 上报一次成功
//
//   - Closed：清零连续失败计数
//   - HalfOpen：连续成功计数加一，达到 SuccessThreshold 后转换为 Closed
//   - Open：忽略（来自熔断前已放行调用的迟到结果，不影响冷却）
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.counts.ConsecutiveFailures = 0
		b.counts.ConsecutiveSuccesses++

	case StateHalfOpen:
		b.probing = false
		b.counts.ConsecutiveSuccesses++
		if b.counts.ConsecutiveSuccesses >= b.successThreshold {
			b.transition(StateClosed, b.now())
		}

	case StateOpen:
		// 迟到结果，忽略
	}
}

// RecordFailure 上报一次失败
//
//   - Closed：连续失败计数加一，达到 FailureThreshold 后转换为 Open
//   - HalfOpen：立即转换回 Open，重新开始冷却
//   - Open：忽略（来自熔断前已放行调用的迟到结果，不重置冷却起点）
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.counts.ConsecutiveSuccesses = 0
		b.counts.ConsecutiveFailures++
		if b.counts.ConsecutiveFailures >= b.failureThreshold {
			b.transition(StateOpen, b.now())
		}

	case StateHalfOpen:
		b.probing = false
		b.transition(StateOpen, b.now())

	case StateOpen:
		// 迟到结果，忽略
	}
}

// ProbeAbort 释放已获取但未实际执行的半开探测名额
//
// 典型场景：Allow 放行后发现 context 已取消，操作并未执行，
// 此时既不应记成功也不应记失败，但必须释放探测名额，
// 否则半开状态会被永久占住。非 HalfOpen 状态下调用是无害的空操作。
func (b *Breaker) ProbeAbort() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.probing = false
	}
}

// Reset 手动将熔断器复位为 Closed 状态并清零所有计数。
// 用于运维介入场景（例如确认下游已恢复，跳过冷却等待）。
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateClosed {
		b.transition(StateClosed, b.now())
		return
	}
	b.counts = Counts{}
}

// State 返回熔断器当前状态。
//
// 注意：Open 状态的冷却期满判定发生在 Allow 中，
// 因此冷却期满但尚无调用到达时，State 仍返回 StateOpen。
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Counts 返回当前统计计数。
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Status 返回熔断器状态快照。
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := Status{
		Name:             b.name,
		State:            b.state,
		StateText:        b.state.String(),
		Counts:           b.counts,
		FailureThreshold: b.failureThreshold,
		SuccessThreshold: b.successThreshold,
		OpenTimeout:      b.openTimeout,
	}
	if b.state == StateOpen {
		st.OpenedAt = b.openedAt
		if remaining := b.openTimeout - b.now().Sub(b.openedAt); remaining > 0 {
			st.RemainingCooldown = remaining
		}
	}
	return st
}

// Name 返回熔断器名称。
func (b *Breaker) Name() string {
	return b.name
}

// transition 执行状态转换：清零计数、维护 openedAt、触发回调。
// 调用方必须持有 b.mu。
func (b *Breaker) transition(to State, at time.Time) {
	from := b.state
	b.state = to
	b.counts = Counts{}
	b.probing = false
	if to == StateOpen {
		b.openedAt = at
	} else {
		b.openedAt = time.Time{}
	}
	if b.onStateChange != nil {
		b.onStateChange(b.name, from, to, at)
	}
}
