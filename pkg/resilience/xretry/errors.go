package xretry

import (
	"errors"
	"fmt"
)

// 参数校验错误
var (
	// ErrInvalidPolicy 策略配置非法
	ErrInvalidPolicy = errors.New("xretry: invalid policy")

	// ErrNilRetryer 传入的 Retryer 为 nil
	ErrNilRetryer = errors.New("xretry: retryer cannot be nil")

	// ErrNilContext 传入的 context 为 nil
	ErrNilContext = errors.New("xretry: context cannot be nil")

	// ErrNilFunc 传入的操作函数为 nil
	ErrNilFunc = errors.New("xretry: function cannot be nil")
)

// RetryableError 可重试错误接口
//
// 实现此接口的错误会被默认判定逻辑自动识别为可重试或不可重试。
// xbreaker 的 *OpenError 也实现此接口（返回 false），
// 使熔断拒绝在重试循环中快速失败。
type RetryableError interface {
	error
	Retryable() bool
}

// PermanentError 永久性错误（不应重试）
type PermanentError struct {
	Err error
}

// NewPermanentError 创建永久性错误
func NewPermanentError(err error) *PermanentError {
	return &PermanentError{Err: err}
}

func (e *PermanentError) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func (e *PermanentError) Retryable() bool {
	return false
}

// TemporaryError 临时性错误（应该重试）
type TemporaryError struct {
	Err error
}

// NewTemporaryError 创建临时性错误
func NewTemporaryError(err error) *TemporaryError {
	return &TemporaryError{Err: err}
}

func (e *TemporaryError) Error() string {
	if e.Err == nil {
		return "temporary error"
	}
	return e.Err.Error()
}

func (e *TemporaryError) Unwrap() error {
	return e.Err
}

func (e *TemporaryError) Retryable() bool {
	return true
}

// ExhaustedError 重试预算耗尽错误
//
// 所有尝试均失败后返回，包装最后一次观察到的原始错误。
// 中间尝试的错误不会上浮——调用方只需要知道"重试过且失败了"
// 以及最终原因。
type ExhaustedError struct {
	// Attempts 实际执行的尝试次数
	Attempts int

	// Err 最后一次尝试的错误
	Err error
}

// Error 实现 error 接口
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("xretry: %d attempts exhausted: %v", e.Attempts, e.Err)
}

// Unwrap 实现 errors.Unwrap 接口
func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// IsExhausted 检查错误链中是否包含重试预算耗尽错误。
func IsExhausted(err error) bool {
	var ee *ExhaustedError
	return errors.As(err, &ee)
}

// IsRetryable 检查错误是否可重试（默认判定逻辑）。
// 规则：
//   - nil 错误：不需要重试（视为成功）
//   - 实现 RetryableError 接口：根据 Retryable() 返回值判断
//   - 其他错误：默认视为可重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var re RetryableError
	if errors.As(err, &re) {
		return re.Retryable()
	}

	// 默认：未知错误视为可重试
	return true
}

// IsPermanent 检查错误是否为永久性错误。
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	return !IsRetryable(err)
}
