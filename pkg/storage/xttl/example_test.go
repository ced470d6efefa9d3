package xttl_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/omeyang/reskit/pkg/storage/xttl"
)

// ExampleNewMemory 演示内存 TTL 缓存的基本用法
func ExampleNewMemory() {
	cache := xttl.NewMemory[string]()
	defer cache.Close()

	ctx := context.Background()
	_ = cache.Set(ctx, "currency:EUR", "0.92", time.Minute)

	value, err := cache.Get(ctx, "currency:EUR")
	if err != nil {
		fmt.Println("未命中")
		return
	}
	fmt.Println("命中:", value)

	_, err = cache.Get(ctx, "currency:GBP")
	fmt.Println("GBP 未命中:", xttl.IsMiss(err))
	// Output:
	// 命中: 0.92
	// GBP 未命中: true
}

// ExampleMemory_WriteFile 演示快照持久化与恢复
func ExampleMemory_WriteFile() {
	ctx := context.Background()
	dir, _ := os.MkdirTemp("", "xttl-example")
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "cache.json")

	src := xttl.NewMemory[string]()
	defer src.Close()
	_ = src.Set(ctx, "weather:tokyo", "sunny 31.5C", time.Hour)

	if err := src.WriteFile(path); err != nil {
		fmt.Println("写入失败:", err)
		return
	}

	dst, err := xttl.NewMemoryFromFile[string](path)
	if err != nil {
		fmt.Println("加载失败:", err)
		return
	}
	defer dst.Close()

	value, _ := dst.Get(ctx, "weather:tokyo")
	fmt.Println("恢复后:", value)
	// Output: 恢复后: sunny 31.5C
}
