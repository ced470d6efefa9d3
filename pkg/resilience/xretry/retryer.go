package xretry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// safeIntToUint 将 int 安全转换为 uint。
// 负数返回 0，正数直接转换。
// 用于将 MaxAttempts (int) 传递给 retry-go 的 Attempts (uint)。
func safeIntToUint(n int) uint {
	if n <= 0 {
		return 0
	}
	return uint(n)
}

// safeUintToInt 将 uint 安全转换为 int。
// 超过 MaxInt 的值会被截断到 MaxInt。
func safeUintToInt(n uint) int {
	if n > uint(math.MaxInt) {
		return math.MaxInt
	}
	return int(n)
}

// OnRetryFunc 重试回调函数类型。
// attempt 为刚刚失败的尝试序号（从 1 开始），err 为该次尝试的错误。
type OnRetryFunc func(attempt int, err error)

// Retryer 重试执行器
//
// Retryer 按 Policy 执行带退避的重试。实例本身无状态、可重入，
// 可被多个 goroutine 并发使用。退避休眠只挂起当前调用者，
// 不影响其他操作。
//
// 底层使用 avast/retry-go/v5 驱动尝试循环。
type Retryer struct {
	policy  Policy
	onRetry OnRetryFunc
	jitter  func() float64 // 返回 [0, 1) 的均匀随机数
}

// Option 执行器配置选项
type Option func(*Retryer)

// WithOnRetry 设置重试回调函数，在每次失败的尝试之后、退避休眠之前调用。
// 传入 nil 会被静默忽略。
func WithOnRetry(f OnRetryFunc) Option {
	return func(r *Retryer) {
		if f != nil {
			r.onRetry = f
		}
	}
}

// WithJitterSource 注入抖动随机源（返回 [0, 1) 的均匀随机数）。
// 主要用于测试注入确定性随机源，使退避延迟可复现。
// 默认使用进程级随机源 math/rand/v2（并发安全）。
func WithJitterSource(f func() float64) Option {
	return func(r *Retryer) {
		if f != nil {
			r.jitter = f
		}
	}
}

// NewRetryer 创建重试执行器。策略非法时返回 ErrInvalidPolicy。
func NewRetryer(policy Policy, opts ...Option) (*Retryer, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	r := &Retryer{
		policy: policy,
		jitter: rand.Float64,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Policy 返回执行器的重试策略。
func (r *Retryer) Policy() Policy {
	return r.policy
}

// Do 执行带重试的操作
//
// 返回值分类：
//   - nil：某次尝试成功
//   - context 类错误：在两次尝试之间被 context 取消或超时中止
//     （可通过 errors.Is 同时匹配最后一次尝试的错误）
//   - 不可重试错误：立即中止，原样返回
//   - *ExhaustedError：尝试预算耗尽，包装最后一次的错误
//
// 如果接收者为 nil，返回 ErrNilRetryer。
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if r == nil {
		return ErrNilRetryer
	}
	if ctx == nil {
		return ErrNilContext
	}
	if fn == nil {
		return ErrNilFunc
	}

	err := retry.New(r.buildOptions(ctx)...).Do(func() error {
		return fn(ctx)
	})
	return r.classify(err)
}

// DoWithResult 执行带重试的操作（有返回值）
//
// 这是泛型函数，必须作为包级函数使用。
// 错误分类与 Retryer.Do 一致。
func DoWithResult[T any](ctx context.Context, r *Retryer, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if r == nil {
		return zero, ErrNilRetryer
	}
	if ctx == nil {
		return zero, ErrNilContext
	}
	if fn == nil {
		return zero, ErrNilFunc
	}

	result, err := retry.NewWithData[T](r.buildOptions(ctx)...).Do(func() (T, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, r.classify(err)
	}
	return result, nil
}

// buildOptions 构建 retry-go 的选项。
// 设计决策: 每次 Do 调用重建选项切片，分配开销对重试场景完全可接受；
// 预构建会引入并发安全复杂度，收益微乎其微。
func (r *Retryer) buildOptions(ctx context.Context) []retry.Option {
	opts := make([]retry.Option, 0, 7)

	opts = append(opts, retry.Context(ctx))
	opts = append(opts, retry.Attempts(safeIntToUint(r.policy.MaxAttempts)))

	opts = append(opts, retry.RetryIf(func(err error) bool {
		// 先检查 retry-go 原生的 Unrecoverable 标记
		if !retry.IsRecoverable(err) {
			return false
		}
		return r.retryable(err)
	}))

	// 注意：retry-go v5 中 DelayType 的 n 从 1 开始
	opts = append(opts, retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
		return r.delay(safeUintToInt(n))
	}))

	if r.onRetry != nil {
		// retry-go v5 中 OnRetry 的 n 从 0 开始，+1 转换为 1-based
		opts = append(opts, retry.OnRetry(func(n uint, err error) {
			r.onRetry(safeUintToInt(n)+1, err)
		}))
	}

	// 只保留最后一个错误；context 中止时包装 context 错误与最后错误，
	// 使 errors.Is 对两者都成立
	opts = append(opts, retry.LastErrorOnly(true))
	opts = append(opts, retry.WrapContextErrorWithLastError(true))

	return opts
}

// delay 计算第 attempt 次失败后的实际延迟（含抖动），
// 钳制在 [0, 生效上限] 内。attempt 从 1 开始。
func (r *Retryer) delay(attempt int) time.Duration {
	base := r.policy.baseDelay(attempt)
	if r.policy.JitterRatio <= 0 || base <= 0 {
		return base
	}

	// factor 在 [1-ratio, 1+ratio] 内均匀分布
	factor := 1.0 + (r.jitter()*2-1)*r.policy.JitterRatio
	limit := r.policy.maxDelayLimit()
	d := float64(base) * factor
	if d < 0 {
		return 0
	}
	if d >= float64(limit) {
		return limit
	}
	return time.Duration(d)
}

// retryable 按策略判定错误是否可重试。
func (r *Retryer) retryable(err error) bool {
	if r.policy.RetryIf != nil {
		return r.policy.RetryIf(err)
	}
	return IsRetryable(err)
}

// classify 将 retry-go 的最终错误映射为 xretry 的错误分类。
func (r *Retryer) classify(err error) error {
	if err == nil {
		return nil
	}
	// context 中止：原样上浮（超时类错误，由调用方决定是否计入失败）
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	// 不可重试错误：立即中止路径，原样上浮
	if !retry.IsRecoverable(err) || !r.retryable(err) {
		return err
	}
	// 可重试错误最终返回，说明尝试预算已耗尽
	return &ExhaustedError{Attempts: r.policy.MaxAttempts, Err: err}
}
