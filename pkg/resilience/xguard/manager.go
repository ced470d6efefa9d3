package xguard

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/omeyang/reskit/pkg/observability/xevent"
	"github.com/omeyang/reskit/pkg/resilience/xbreaker"
	"github.com/omeyang/reskit/pkg/resilience/xfallback"
	"github.com/omeyang/reskit/pkg/resilience/xretry"
	"github.com/omeyang/reskit/pkg/storage/xttl"
)

// entry 单个操作键的弹性组件集合。创建后只读。
type entry[V any] struct {
	breaker *xbreaker.Breaker
	retryer *xretry.Retryer
	chain   *xfallback.Chain[V]
}

// Manager 弹性管理器
//
// 每个操作键在首次 Execute 时惰性创建独立的熔断器、重试器与降级链。
// 注册表读多写少，使用读写锁；键级状态由各组件自己的锁保护，
// 不同键的执行互不竞争。
type Manager[V any] struct {
	observer   xevent.Observer
	logger     *slog.Logger
	now        func() time.Time
	cacheStats func() xttl.Stats

	mu      sync.RWMutex
	entries map[string]*entry[V]
}

// Option 管理器配置选项
type Option[V any] func(*Manager[V])

// WithObserver 设置观测事件观察者。nil 会被静默忽略。
func WithObserver[V any](o xevent.Observer) Option[V] {
	return func(m *Manager[V]) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithLogger 设置结构化日志器，用于记录熔断器状态迁移。
// nil 会被静默忽略（默认丢弃日志）。
func WithLogger[V any](l *slog.Logger) Option[V] {
	return func(m *Manager[V]) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock 注入时钟函数，主要用于测试控制熔断器冷却。
// nil 会被静默忽略。
func WithClock[V any](now func() time.Time) Option[V] {
	return func(m *Manager[V]) {
		if now != nil {
			m.now = now
		}
	}
}

// WithCacheStats 注册缓存统计来源，Health 会聚合其返回值。
// 典型用法是传入 xttl.Memory 的 Stats 方法。
func WithCacheStats[V any](fn func() xttl.Stats) Option[V] {
	return func(m *Manager[V]) {
		if fn != nil {
			m.cacheStats = fn
		}
	}
}

// NewManager 创建弹性管理器。
func NewManager[V any](opts ...Option[V]) *Manager[V] {
	m := &Manager[V]{
		observer: xevent.Noop{},
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
		entries:  make(map[string]*entry[V]),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Execute 以 key 的弹性配置执行操作
//
// 返回值分类：
//   - (value, nil)：主路径成功，或主路径失败但降级链提供了结果
//   - *xbreaker.OpenError：被熔断器拒绝，操作未执行
//   - context 类错误：重试期间被取消或超时，计为一次失败但不走降级
//   - *xfallback.ExhaustedError：主路径与全部降级均失败，
//     聚合主路径错误与每个降级的错误
//
// 同一 key 首次调用时 cfg 被校验并固化，后续调用传入的 cfg 被忽略。
func (m *Manager[V]) Execute(ctx context.Context, key string, op func(ctx context.Context) (V, error), cfg Config[V]) (V, error) {
	var zero V
	if ctx == nil {
		return zero, ErrNilContext
	}
	if key == "" {
		return zero, ErrEmptyKey
	}
	if op == nil {
		return zero, ErrNilOperation
	}

	e, err := m.entryFor(key, cfg)
	if err != nil {
		return zero, err
	}

	if err := e.breaker.Allow(); err != nil {
		m.observer.OperationOutcome(xevent.OutcomeEvent{
			Key: key, Outcome: xevent.OutcomeRejected, At: m.now(), Err: err,
		})
		return zero, err
	}

	// 放行后、执行前 context 已结束：释放可能占用的探测名额，
	// 既不记成功也不记失败
	if err := ctx.Err(); err != nil {
		e.breaker.ProbeAbort()
		return zero, err
	}

	result, err := xretry.DoWithResult(ctx, e.retryer, op)
	if err == nil {
		e.breaker.RecordSuccess()
		m.observer.OperationOutcome(xevent.OutcomeEvent{
			Key: key, Outcome: xevent.OutcomeSuccess, At: m.now(),
		})
		return result, nil
	}

	// context 中止：计为失败但不走降级，调用方已不再等待结果
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		e.breaker.RecordFailure()
		m.observer.OperationOutcome(xevent.OutcomeEvent{
			Key: key, Outcome: xevent.OutcomeFailure, At: m.now(), Err: err,
		})
		return zero, err
	}

	// 主路径最终失败：先如实上报熔断器，再尝试降级。
	// 降级成功不改变失败记账，熔断器反映的是主路径健康度。
	e.breaker.RecordFailure()

	value, fbErr := e.chain.Resolve(ctx, key, err)
	if fbErr == nil {
		m.observer.OperationOutcome(xevent.OutcomeEvent{
			Key: key, Outcome: xevent.OutcomeFallback, At: m.now(), Err: err,
		})
		return value, nil
	}

	m.observer.OperationOutcome(xevent.OutcomeEvent{
		Key: key, Outcome: xevent.OutcomeFailure, At: m.now(), Err: fbErr,
	})
	return zero, fbErr
}

// entryFor 返回 key 的组件集合，首次访问时按 cfg 创建。
func (m *Manager[V]) entryFor(key string, cfg Config[V]) (*entry[V], error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if ok {
		return e, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[key]; ok {
		return e, nil
	}

	cfg = cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	breaker := xbreaker.NewBreaker(key,
		xbreaker.WithFailureThreshold(cfg.FailureThreshold),
		xbreaker.WithSuccessThreshold(cfg.SuccessThreshold),
		xbreaker.WithOpenTimeout(cfg.OpenTimeout),
		xbreaker.WithClock(m.now),
		xbreaker.WithOnStateChange(func(name string, from, to xbreaker.State, at time.Time) {
			m.logger.Warn("breaker state changed",
				slog.String("key", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			m.observer.BreakerTransition(xevent.TransitionEvent{
				Key: name, From: from.String(), To: to.String(), At: at,
			})
		}),
	)

	retryer, err := xretry.NewRetryer(cfg.Retry,
		xretry.WithOnRetry(func(attempt int, err error) {
			m.observer.RetryAttempt(xevent.RetryEvent{
				Key: key, Attempt: attempt, At: m.now(), Err: err,
			})
		}),
	)
	if err != nil {
		return nil, err
	}

	e = &entry[V]{
		breaker: breaker,
		retryer: retryer,
		chain:   xfallback.NewChain(cfg.Fallbacks...),
	}
	m.entries[key] = e
	return e, nil
}

// =============================================================================
// 健康检查与运维操作
// =============================================================================

// Health 管理器健康快照。
type Health struct {
	// Breakers 所有已知操作键的熔断器状态
	Breakers map[string]xbreaker.Status `json:"breakers"`

	// OpenKeys 处于 Open 状态的操作键，按字典序排列
	OpenKeys []string `json:"open_keys"`

	// OpenCount 处于 Open 状态的操作键数量
	OpenCount int `json:"open_count"`

	// Cache 缓存统计（注册了 WithCacheStats 时填充）
	Cache *xttl.Stats `json:"cache,omitempty"`
}

// Health 返回所有操作键的健康快照。
func (m *Manager[V]) Health() Health {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h := Health{
		Breakers: make(map[string]xbreaker.Status, len(m.entries)),
	}
	for key, e := range m.entries {
		st := e.breaker.Status()
		h.Breakers[key] = st
		if st.State == xbreaker.StateOpen {
			h.OpenKeys = append(h.OpenKeys, key)
		}
	}
	sort.Strings(h.OpenKeys)
	h.OpenCount = len(h.OpenKeys)

	if m.cacheStats != nil {
		stats := m.cacheStats()
		h.Cache = &stats
	}
	return h
}

// ResetKey 将指定操作键的熔断器复位为 Closed 状态。
// 返回该键是否存在。用于运维确认下游恢复后跳过冷却等待。
func (m *Manager[V]) ResetKey(key string) bool {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	e.breaker.Reset()
	return true
}

// Keys 返回所有已知操作键，按字典序排列。
func (m *Manager[V]) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Len 返回已知操作键数量。
func (m *Manager[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
