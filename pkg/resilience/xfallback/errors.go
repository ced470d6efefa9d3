package xfallback

import (
	"errors"
	"fmt"
	"strings"
)

// 参数校验错误
var (
	// ErrNilContext 传入的 context 为 nil
	ErrNilContext = errors.New("xfallback: context cannot be nil")

	// ErrNilProvider 传入的提供者为 nil
	ErrNilProvider = errors.New("xfallback: provider cannot be nil")

	// ErrNoValue 提供者没有可用的值
	ErrNoValue = errors.New("xfallback: no value available")
)

// ExhaustedError 降级链全部失败错误
//
// Causes 按发生顺序排列：首项为主路径错误（如有），
// 其后是每个提供者的错误。
type ExhaustedError struct {
	// Key 本次解析的操作 key
	Key string

	// Providers 实际尝试过的提供者名称，与 Causes 中提供者错误一一对应
	Providers []string

	// Causes 按顺序聚合的错误
	Causes []error
}

// Error 实现 error 接口
func (e *ExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "xfallback: all fallbacks exhausted for %q", e.Key)
	if len(e.Providers) > 0 {
		fmt.Fprintf(&b, " (tried: %s)", strings.Join(e.Providers, ", "))
	}
	if len(e.Causes) > 0 {
		fmt.Fprintf(&b, ": %v", e.Causes[len(e.Causes)-1])
	}
	return b.String()
}

// Unwrap 返回聚合的全部错误，支持 errors.Is/As 匹配其中任意一个。
func (e *ExhaustedError) Unwrap() []error {
	return e.Causes
}

// IsExhausted 检查错误链中是否包含降级链耗尽错误。
func IsExhausted(err error) bool {
	var ee *ExhaustedError
	return errors.As(err, &ee)
}
