package xguard_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omeyang/reskit/pkg/resilience/xfallback"
	"github.com/omeyang/reskit/pkg/resilience/xguard"
	"github.com/omeyang/reskit/pkg/resilience/xretry"
	"github.com/omeyang/reskit/pkg/storage/xttl"
)

// ExampleNewManager 演示熔断、重试、缓存降级的完整组合
func ExampleNewManager() {
	ctx := context.Background()

	// 缓存里有一份历史汇率作为降级数据
	cache := xttl.NewMemory[string]()
	defer cache.Close()
	_ = cache.Set(ctx, "currency:EUR", "0.91 (cached)", time.Hour)

	manager := xguard.NewManager[string]()
	cfg := xguard.Config[string]{
		FailureThreshold: 3,
		OpenTimeout:      30 * time.Second,
		Retry: xretry.Policy{
			MaxAttempts: 2,
			BaseDelay:   time.Millisecond,
			MaxDelay:    time.Millisecond,
			Strategy:    xretry.StrategyFixed,
		},
		Fallbacks: []xfallback.Provider[string]{
			xfallback.NewCacheLookup[string](cache),
			xfallback.NewStatic("1.00 (default)"),
		},
	}

	// 主路径持续失败，调用方仍能拿到缓存中的历史值
	value, err := manager.Execute(ctx, "currency:EUR", func(ctx context.Context) (string, error) {
		return "", errors.New("rate service unavailable")
	}, cfg)
	fmt.Println(value, err)

	// 熔断器如实记录了主路径失败
	health := manager.Health()
	fmt.Println("连续失败:", health.Breakers["currency:EUR"].Counts.ConsecutiveFailures)
	// Output:
	// 0.91 (cached) <nil>
	// 连续失败: 1
}

// ExampleManager_Health 演示健康检查聚合
func ExampleManager_Health() {
	ctx := context.Background()
	manager := xguard.NewManager[string]()

	cfg := xguard.Config[string]{
		FailureThreshold: 1,
		Retry: xretry.Policy{
			MaxAttempts: 1,
			BaseDelay:   time.Millisecond,
			MaxDelay:    time.Millisecond,
			Strategy:    xretry.StrategyFixed,
		},
	}

	_, _ = manager.Execute(ctx, "healthy-api", func(ctx context.Context) (string, error) {
		return "ok", nil
	}, cfg)
	_, _ = manager.Execute(ctx, "broken-api", func(ctx context.Context) (string, error) {
		return "", errors.New("down")
	}, cfg)

	health := manager.Health()
	fmt.Println("熔断中的操作:", health.OpenKeys)
	fmt.Println("熔断数量:", health.OpenCount)
	// Output:
	// 熔断中的操作: [broken-api]
	// 熔断数量: 1
}
