package xttl

import "errors"

// 缓存错误定义
var (
	// ErrMiss 缓存未命中（key 不存在或已过期）
	ErrMiss = errors.New("xttl: cache miss")

	// ErrNilClient 传入的 Redis 客户端为 nil
	ErrNilClient = errors.New("xttl: redis client cannot be nil")

	// ErrNilContext 传入的 context 为 nil
	ErrNilContext = errors.New("xttl: context cannot be nil")

	// ErrNilSnapshot 传入的快照为 nil
	ErrNilSnapshot = errors.New("xttl: snapshot cannot be nil")

	// ErrSnapshotVersion 快照版本不兼容
	ErrSnapshotVersion = errors.New("xttl: unsupported snapshot version")
)

// IsMiss 检查错误链中是否包含缓存未命中错误。
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}
