package xttl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()

	t.Run("往返保持条目与过期时刻", func(t *testing.T) {
		src := NewMemory[string](WithClock(clock.Now))
		defer src.Close()

		require.NoError(t, src.Set(ctx, "currency:EUR", "0.92", time.Hour))
		require.NoError(t, src.Set(ctx, "currency:JPY", "155.3", 0))

		snap := src.Snapshot()
		assert.Equal(t, SnapshotVersion, snap.Version)
		assert.Len(t, snap.Entries, 2)

		dst := NewMemory[string](WithClock(clock.Now))
		defer dst.Close()
		require.NoError(t, dst.Restore(snap))

		got, err := dst.Get(ctx, "currency:EUR")
		require.NoError(t, err)
		assert.Equal(t, "0.92", got)

		// 过期时刻相对原始创建时间延续，而非恢复时刻
		clock.Advance(61 * time.Minute)
		_, err = dst.Get(ctx, "currency:EUR")
		assert.ErrorIs(t, err, ErrMiss)

		got, err = dst.Get(ctx, "currency:JPY")
		require.NoError(t, err)
		assert.Equal(t, "155.3", got)
	})

	t.Run("快照跳过已过期条目", func(t *testing.T) {
		m := NewMemory[string](WithClock(clock.Now))
		defer m.Close()

		require.NoError(t, m.Set(ctx, "live", "v", time.Hour))
		require.NoError(t, m.Set(ctx, "dead", "v", time.Second))
		clock.Advance(2 * time.Second)

		snap := m.Snapshot()
		require.Len(t, snap.Entries, 1)
		assert.Equal(t, "live", snap.Entries[0].Key)
	})

	t.Run("恢复丢弃已过期条目", func(t *testing.T) {
		snap := &Snapshot[string]{
			Version: SnapshotVersion,
			SavedAt: clock.Now(),
			Entries: []SnapshotEntry[string]{
				{Key: "stale", Value: "v", CreatedAt: clock.Now().Add(-time.Hour), TTLMs: 1000},
				{Key: "fresh", Value: "v", CreatedAt: clock.Now(), TTLMs: 60_000},
			},
		}

		m := NewMemory[string](WithClock(clock.Now))
		defer m.Close()
		require.NoError(t, m.Restore(snap))

		assert.Equal(t, 1, m.Len())
		_, err := m.Get(ctx, "stale")
		assert.ErrorIs(t, err, ErrMiss)
		_, err = m.Get(ctx, "fresh")
		assert.NoError(t, err)
	})

	t.Run("恢复替换现有内容", func(t *testing.T) {
		m := NewMemory[string](WithClock(clock.Now))
		defer m.Close()
		require.NoError(t, m.Set(ctx, "pre-existing", "v", 0))

		require.NoError(t, m.Restore(&Snapshot[string]{Version: SnapshotVersion}))
		assert.Equal(t, 0, m.Len())
	})

	t.Run("nil快照被拒绝", func(t *testing.T) {
		m := NewMemory[string]()
		defer m.Close()
		assert.ErrorIs(t, m.Restore(nil), ErrNilSnapshot)
	})

	t.Run("版本不匹配被拒绝", func(t *testing.T) {
		m := NewMemory[string]()
		defer m.Close()
		err := m.Restore(&Snapshot[string]{Version: 99})
		assert.ErrorIs(t, err, ErrSnapshotVersion)
	})

	t.Run("恢复期间并发读不观察半程状态", func(t *testing.T) {
		m := NewMemory[int](WithCapacity(4096))
		defer m.Close()

		for i := 0; i < 512; i++ {
			require.NoError(t, m.Set(ctx, fmt.Sprintf("k-%d", i), i, 0))
		}
		snap := m.Snapshot()
		require.Len(t, snap.Entries, 512)

		stop := make(chan struct{})
		var misses atomic.Int64
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := m.Get(ctx, "k-0"); err != nil {
					misses.Add(1)
				}
			}
		}()

		// 快照始终包含 k-0，恢复是全量排他操作，
		// 读取方要么看到旧内容要么看到恢复后的内容
		for i := 0; i < 100; i++ {
			require.NoError(t, m.Restore(snap))
		}
		close(stop)
		wg.Wait()
		assert.Zero(t, misses.Load())
	})
}

func TestSnapshotFile(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()

	t.Run("写入与读取往返", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.json")

		src := NewMemory[map[string]float64](WithClock(clock.Now))
		defer src.Close()
		require.NoError(t, src.Set(ctx, "rates", map[string]float64{"EUR": 0.92, "JPY": 155.3}, time.Hour))
		require.NoError(t, src.WriteFile(path))

		// 文件是格式良好的版本化 JSON
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.EqualValues(t, 1, raw["version"])
		assert.Contains(t, raw, "saved_at")
		assert.Contains(t, raw, "entries")

		dst, err := NewMemoryFromFile[map[string]float64](path, WithClock(clock.Now))
		require.NoError(t, err)
		defer dst.Close()

		got, err := dst.Get(ctx, "rates")
		require.NoError(t, err)
		assert.InDelta(t, 0.92, got["EUR"], 1e-9)
	})

	t.Run("目标文件原子替换", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "cache.json")
		require.NoError(t, os.WriteFile(path, []byte("old junk"), 0o644))

		m := NewMemory[string](WithClock(clock.Now))
		defer m.Close()
		require.NoError(t, m.Set(ctx, "k", "v", 0))
		require.NoError(t, m.WriteFile(path))

		// 旧内容被完整替换，且没有残留临时文件
		var snap Snapshot[string]
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &snap))
		require.Len(t, snap.Entries, 1)

		files, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("文件不存在", func(t *testing.T) {
		_, err := NewMemoryFromFile[string](filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	})

	t.Run("损坏的JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		m := NewMemory[string]()
		defer m.Close()
		assert.Error(t, m.ReadFile(path))
	})
}
