package xttl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SnapshotVersion 当前快照格式版本。
const SnapshotVersion = 1

// =============================================================================
// 快照格式
// =============================================================================

// SnapshotEntry 快照中的单个条目。
// CreatedAt 与 TTLMs 共同决定过期时刻，恢复后过期语义与写入时一致。
type SnapshotEntry[V any] struct {
	Key       string    `json:"key"`
	Value     V         `json:"value"`
	CreatedAt time.Time `json:"created_at"`

	// TTLMs 过期时长（毫秒）。<= 0 表示永不过期。
	TTLMs int64 `json:"ttl_ms"`
}

// Snapshot 缓存的版本化快照。
//
// 快照是一致性的全量视图：生成期间持有全部分片锁，
// 不会观察到半程写入。已过期条目不会进入快照。
type Snapshot[V any] struct {
	Version int                `json:"version"`
	SavedAt time.Time          `json:"saved_at"`
	Entries []SnapshotEntry[V] `json:"entries"`
}

// =============================================================================
// Memory 快照操作
// =============================================================================

// Snapshot 生成当前缓存内容的一致性快照。
// 依次获取全部分片锁，期间的并发写入要么全部可见要么全部不可见。
func (m *Memory[V]) Snapshot() *Snapshot[V] {
	now := m.now()

	for _, s := range m.shards {
		s.mu.Lock()
	}
	defer func() {
		for _, s := range m.shards {
			s.mu.Unlock()
		}
	}()

	snap := &Snapshot[V]{
		Version: SnapshotVersion,
		SavedAt: now,
	}
	for _, s := range m.shards {
		for _, key := range s.lru.Keys() {
			e, ok := s.lru.Peek(key)
			if !ok || e.expiredAt(now) {
				continue
			}
			snap.Entries = append(snap.Entries, SnapshotEntry[V]{
				Key:       key,
				Value:     e.value,
				CreatedAt: e.createdAt,
				TTLMs:     e.ttl.Milliseconds(),
			})
		}
	}
	return snap
}

// Restore 用快照内容替换缓存当前内容。
// 相对恢复时刻已过期的条目会被丢弃，其余条目保留原始创建时间，
// 过期时刻与快照生成前完全一致。
//
// 恢复与 Snapshot 一样是全量排他操作：整个过程持有全部分片锁，
// 并发读取方要么看到旧内容要么看到恢复后的内容，
// 不会观察到清空后尚未填充完毕的中间状态。
func (m *Memory[V]) Restore(snap *Snapshot[V]) error {
	if snap == nil {
		return ErrNilSnapshot
	}
	if snap.Version != SnapshotVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrSnapshotVersion, snap.Version, SnapshotVersion)
	}

	now := m.now()

	for _, s := range m.shards {
		s.mu.Lock()
	}
	defer func() {
		for _, s := range m.shards {
			s.mu.Unlock()
		}
	}()

	for _, s := range m.shards {
		s.lru.Purge()
	}

	for _, se := range snap.Entries {
		ttl := time.Duration(se.TTLMs) * time.Millisecond
		e := &entry[V]{
			value:          se.Value,
			createdAt:      se.CreatedAt,
			ttl:            ttl,
			lastAccessedAt: now,
		}
		if e.expiredAt(now) {
			continue
		}

		s := m.shardFor(se.Key)
		if !s.lru.Contains(se.Key) && s.lru.Len() >= m.perShard {
			if _, _, ok := s.lru.RemoveOldest(); ok {
				m.evictions.Add(1)
			}
		}
		s.lru.Add(se.Key, e)
	}
	return nil
}

// WriteFile 将快照以 JSON 形式原子写入文件。
// 先写同目录临时文件再 rename，读取方不会看到半截文件。
func (m *Memory[V]) WriteFile(path string) error {
	snap := m.Snapshot()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("xttl: marshal snapshot: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("xttl: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("xttl: write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("xttl: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("xttl: rename snapshot: %w", err)
	}
	return nil
}

// ReadFile 从 JSON 快照文件恢复缓存内容。
// 相对当前时刻已过期的条目会被丢弃。
func (m *Memory[V]) ReadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("xttl: read snapshot: %w", err)
	}

	var snap Snapshot[V]
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("xttl: unmarshal snapshot: %w", err)
	}
	return m.Restore(&snap)
}

// NewMemoryFromFile 创建内存缓存并从快照文件加载初始内容。
func NewMemoryFromFile[V any](path string, opts ...MemoryOption) (*Memory[V], error) {
	m := NewMemory[V](opts...)
	if err := m.ReadFile(path); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}
