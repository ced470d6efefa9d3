// Package xretry 提供策略驱动的重试执行器。
//
// # 设计理念
//
// xretry 以 Policy 值对象描述一次重试行为的全部配置：
// 尝试次数上限、基础延迟、延迟上限、抖动比例、重试判定。
// Policy 在调用间共享且只读，Retryer 本身无状态、可重入。
//
// 底层使用 [avast/retry-go/v5] 驱动尝试循环。
//
// # 退避策略
//
//   - StrategyExponential：delay = min(BaseDelay * 2^(attempt-1), MaxDelay)（默认）
//   - StrategyLinear：delay = min(BaseDelay * attempt, MaxDelay)
//   - StrategyFixed：delay = min(BaseDelay, MaxDelay)
//
// 在此基础上施加 ±JitterRatio 的均匀抖动，避免多个操作的重试风暴同步。
// 抖动随机源可通过 WithJitterSource 注入，便于测试复现退避序列。
//
// # 错误分类
//
//   - 可重试错误在内部消化，不会逐次上浮
//   - 不可重试错误（Policy.RetryIf 判否、PermanentError、
//     实现 Retryable() 返回 false 的错误）立即中止并原样返回
//   - 尝试预算耗尽返回 *ExhaustedError，包装最后一次的原始错误
//   - context 取消或超时在两次尝试之间中止，返回 context 类错误
//
// [avast/retry-go/v5]: https://github.com/avast/retry-go
package xretry
