package xttl

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/omeyang/reskit/pkg/observability/xevent"
)

// cacheNameMemory 内存缓存在访问事件中的标识。
const cacheNameMemory = "memory"

// =============================================================================
// Memory 配置选项
// =============================================================================

const (
	// DefaultCapacity 默认总容量（条目数）
	DefaultCapacity = 1024

	// DefaultShards 默认分片数
	DefaultShards = 16
)

// memoryOptions 定义内存缓存的配置选项。
type memoryOptions struct {
	capacity      int
	shards        int
	sweepInterval time.Duration
	now           func() time.Time
	observer      xevent.Observer
}

// MemoryOption 定义配置内存缓存的函数类型。
type MemoryOption func(*memoryOptions)

// defaultMemoryOptions 返回默认的内存缓存配置。
func defaultMemoryOptions() *memoryOptions {
	return &memoryOptions{
		capacity: DefaultCapacity,
		shards:   DefaultShards,
		now:      time.Now,
		observer: xevent.Noop{},
	}
}

// WithCapacity 设置总容量（条目数），在所有分片间均分。
// 如果 n <= 0，将忽略此设置并使用默认值。
func WithCapacity(n int) MemoryOption {
	return func(o *memoryOptions) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithShards 设置分片数。
// 如果 n <= 0，将忽略此设置并使用默认值。
func WithShards(n int) MemoryOption {
	return func(o *memoryOptions) {
		if n > 0 {
			o.shards = n
		}
	}
}

// WithSweepInterval 启用后台清扫协程，每隔 interval 扫除一次过期条目。
// 如果 interval <= 0，将忽略此设置（只做惰性过期）。
// 启用后必须调用 Close 停止清扫协程。
func WithSweepInterval(interval time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		if interval > 0 {
			o.sweepInterval = interval
		}
	}
}

// WithObserver 设置观测事件观察者，每次 Get 上报一条缓存访问事件。
// 传入 nil 会被静默忽略（默认丢弃事件）。
func WithObserver(o xevent.Observer) MemoryOption {
	return func(opts *memoryOptions) {
		if o != nil {
			opts.observer = o
		}
	}
}

// WithClock 注入时钟函数，主要用于测试控制时间流逝。
// 传入 nil 会被静默忽略。
func WithClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// =============================================================================
// Memory 实现
// =============================================================================

// entry 单个缓存条目。createdAt 与 ttl 决定过期时刻，
// lastAccessedAt 仅用于快照与观测，LRU 序由底层链表维护。
type entry[V any] struct {
	value          V
	createdAt      time.Time
	ttl            time.Duration
	lastAccessedAt time.Time
}

// expiredAt 判断条目在 now 时刻是否已过期。ttl <= 0 表示永不过期。
func (e *entry[V]) expiredAt(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.createdAt) >= e.ttl
}

// shard 单个分片：互斥锁 + LRU。
type shard[V any] struct {
	mu  sync.Mutex
	lru *simplelru.LRU[string, *entry[V]]
}

// Memory 分片式内存 TTL 缓存
//
// 所有方法并发安全。条目过期采用惰性删除（读到过期条目时移除），
// 可选配合后台清扫协程（WithSweepInterval）主动回收。
type Memory[V any] struct {
	shards   []*shard[V]
	perShard int
	capacity int
	now      func() time.Time
	observer xevent.Observer

	hits        atomic.Uint64
	misses      atomic.Uint64
	sets        atomic.Uint64
	deletes     atomic.Uint64
	expirations atomic.Uint64
	evictions   atomic.Uint64

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ Cache[string] = (*Memory[string])(nil)

// NewMemory 创建内存 TTL 缓存。
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	options := defaultMemoryOptions()
	for _, opt := range opts {
		opt(options)
	}

	perShard := (options.capacity + options.shards - 1) / options.shards
	if perShard < 1 {
		perShard = 1
	}

	m := &Memory[V]{
		shards:   make([]*shard[V], options.shards),
		perShard: perShard,
		capacity: perShard * options.shards,
		now:      options.now,
		observer: options.observer,
	}
	for i := range m.shards {
		// simplelru 只在 size <= 0 时报错，此处 perShard >= 1 恒成立
		lru, _ := simplelru.NewLRU[string, *entry[V]](perShard, nil)
		m.shards[i] = &shard[V]{lru: lru}
	}

	if options.sweepInterval > 0 {
		m.stop = make(chan struct{})
		m.done = make(chan struct{})
		go m.janitor(options.sweepInterval)
	}
	return m
}

// shardFor 按 key 的 xxhash 值选择分片。
func (m *Memory[V]) shardFor(key string) *shard[V] {
	return m.shards[xxhash.Sum64String(key)%uint64(len(m.shards))]
}

// Get 读取缓存条目。key 不存在或已过期时返回 ErrMiss。
func (m *Memory[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	if ctx == nil {
		return zero, ErrNilContext
	}

	now := m.now()
	s := m.shardFor(key)

	// 观察者回调在分片锁之外执行，回调内部访问缓存不会死锁
	s.mu.Lock()
	e, ok := s.lru.Get(key)
	if ok && e.expiredAt(now) {
		s.lru.Remove(key)
		m.expirations.Add(1)
		ok = false
	}
	var value V
	if ok {
		e.lastAccessedAt = now
		value = e.value
	}
	s.mu.Unlock()

	if !ok {
		m.misses.Add(1)
		m.observer.CacheAccess(xevent.CacheEvent{Cache: cacheNameMemory, Key: key, Hit: false, At: now})
		return zero, ErrMiss
	}
	m.hits.Add(1)
	m.observer.CacheAccess(xevent.CacheEvent{Cache: cacheNameMemory, Key: key, Hit: true, At: now})
	return value, nil
}

// Set 写入缓存条目。ttl <= 0 表示永不过期。
// 分片容量打满时先清理该分片内已过期的条目，仍不够才按 LRU 淘汰。
func (m *Memory[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	if ctx == nil {
		return ErrNilContext
	}

	now := m.now()
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lru.Contains(key) && s.lru.Len() >= m.perShard {
		if m.purgeExpiredLocked(s, now) == 0 {
			if _, _, ok := s.lru.RemoveOldest(); ok {
				m.evictions.Add(1)
			}
		}
	}

	s.lru.Add(key, &entry[V]{
		value:          value,
		createdAt:      now,
		ttl:            ttl,
		lastAccessedAt: now,
	})
	m.sets.Add(1)
	return nil
}

// Delete 删除缓存条目。key 不存在时不报错。
func (m *Memory[V]) Delete(ctx context.Context, key string) error {
	if ctx == nil {
		return ErrNilContext
	}

	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lru.Remove(key) {
		m.deletes.Add(1)
	}
	return nil
}

// Exists 检查 key 是否存在且未过期，不更新 LRU 访问序。
func (m *Memory[V]) Exists(ctx context.Context, key string) (bool, error) {
	if ctx == nil {
		return false, ErrNilContext
	}

	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lru.Peek(key)
	if !ok {
		return false, nil
	}
	if e.expiredAt(m.now()) {
		s.lru.Remove(key)
		m.expirations.Add(1)
		return false, nil
	}
	return true, nil
}

// Keys 返回所有未过期条目的 key。顺序不保证。
func (m *Memory[V]) Keys() []string {
	now := m.now()
	var keys []string
	for _, s := range m.shards {
		s.mu.Lock()
		for _, key := range s.lru.Keys() {
			if e, ok := s.lru.Peek(key); ok && !e.expiredAt(now) {
				keys = append(keys, key)
			}
		}
		s.mu.Unlock()
	}
	return keys
}

// Len 返回未过期条目数。
func (m *Memory[V]) Len() int {
	now := m.now()
	n := 0
	for _, s := range m.shards {
		s.mu.Lock()
		for _, key := range s.lru.Keys() {
			if e, ok := s.lru.Peek(key); ok && !e.expiredAt(now) {
				n++
			}
		}
		s.mu.Unlock()
	}
	return n
}

// Clear 清空所有条目。不计入删除/淘汰统计。
func (m *Memory[V]) Clear() {
	for _, s := range m.shards {
		s.mu.Lock()
		s.lru.Purge()
		s.mu.Unlock()
	}
}

// Sweep 立即扫除所有分片中已过期的条目，返回移除数量。
func (m *Memory[V]) Sweep() int {
	now := m.now()
	removed := 0
	for _, s := range m.shards {
		s.mu.Lock()
		removed += m.purgeExpiredLocked(s, now)
		s.mu.Unlock()
	}
	return removed
}

// Stats 返回缓存统计信息。
func (m *Memory[V]) Stats() Stats {
	size := 0
	for _, s := range m.shards {
		s.mu.Lock()
		size += s.lru.Len()
		s.mu.Unlock()
	}

	hits := m.hits.Load()
	misses := m.misses.Load()
	st := Stats{
		Hits:        hits,
		Misses:      misses,
		Sets:        m.sets.Load(),
		Deletes:     m.deletes.Load(),
		Expirations: m.expirations.Load(),
		Evictions:   m.evictions.Load(),
		Size:        size,
		Capacity:    m.capacity,
	}
	if total := hits + misses; total > 0 {
		st.HitRate = float64(hits) / float64(total)
	}
	return st
}

// Close 停止后台清扫协程。可安全多次调用。
func (m *Memory[V]) Close() error {
	m.closeOnce.Do(func() {
		if m.stop != nil {
			close(m.stop)
			<-m.done
		}
	})
	return nil
}

// purgeExpiredLocked 清理单个分片内已过期的条目。调用方必须持有分片锁。
func (m *Memory[V]) purgeExpiredLocked(s *shard[V], now time.Time) int {
	removed := 0
	for _, key := range s.lru.Keys() {
		if e, ok := s.lru.Peek(key); ok && e.expiredAt(now) {
			s.lru.Remove(key)
			m.expirations.Add(1)
			removed++
		}
	}
	return removed
}

// janitor 后台清扫循环，由 Close 停止。
func (m *Memory[V]) janitor(interval time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stop:
			return
		}
	}
}
