// Package xbreaker 提供按操作维度的熔断器，保护系统免受级联故障影响。
//
// # 设计理念
//
// xbreaker 提供手动上报模式的熔断器：Allow 获取执行许可，
// RecordSuccess/RecordFailure 上报最终结果。这种两段式 API
// 允许调用方在"许可"与"上报"之间自由组合重试、降级等逻辑——
// 例如降级成功后仍将原始失败计入熔断器（降级只对调用方掩盖错误，
// 不对熔断器掩盖）。
//
// # 熔断器状态
//
//   - StateClosed（关闭）：正常状态，请求正常通过，连续失败会被统计
//   - StateOpen（打开）：熔断状态，请求直接被拒绝，冷却期满后进入半开
//   - StateHalfOpen（半开）：探测状态，只放行一个探测请求
//
// # 状态转换
//
//   - Closed → Open：连续失败次数达到 FailureThreshold
//   - Open → HalfOpen：距 Open 时刻超过 OpenTimeout 后的首个 Allow
//   - HalfOpen → Closed：连续成功次数达到 SuccessThreshold
//   - HalfOpen → Open：任意一次失败
//
// # 与 xretry 的组合
//
// Allow 返回的 *OpenError 实现 Retryable() 返回 false，
// 与 xretry 组合使用时熔断拒绝不会被重试（快速失败）。
package xbreaker
