package xguard

import "errors"

// 参数校验错误
var (
	// ErrNilContext 传入的 context 为 nil
	ErrNilContext = errors.New("xguard: context cannot be nil")

	// ErrNilOperation 传入的操作函数为 nil
	ErrNilOperation = errors.New("xguard: operation cannot be nil")

	// ErrEmptyKey 操作键为空
	ErrEmptyKey = errors.New("xguard: operation key cannot be empty")

	// ErrInvalidConfig 配置非法
	ErrInvalidConfig = errors.New("xguard: invalid config")
)
