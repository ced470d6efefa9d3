// Package xguard 提供按操作键组合熔断、重试、降级与观测的弹性管理器。
//
// # 设计理念
//
// Manager 是 xbreaker、xretry、xfallback 的组合层：每个操作键
// 在首次执行时惰性创建一套独立的 {熔断器, 重试器, 降级链}，
// 之后同一键的执行共享这套状态，不同键互不干扰。
//
// 单次 Execute 的流程：
//
//  1. 向熔断器申请许可，被拒绝时直接返回 *xbreaker.OpenError，
//     不计入失败、不走降级
//  2. 按重试策略执行操作，可重试错误在内部消化
//  3. 成功 → 上报熔断器成功
//  4. context 取消或超时 → 上报失败并原样返回，不走降级
//  5. 其他最终失败 → 上报失败，随后按序尝试降级链；
//     降级成功仍然计为一次主路径失败（熔断器如实反映主路径健康度）
//
// # 观测
//
// 关键节点通过 xevent.Observer 发出事件：操作结局、熔断器状态迁移、
// 重试尝试。状态迁移同时写入结构化日志。
//
// # 配置
//
// Config 描述一个操作键的全部弹性参数，可手工构造，
// 也可用 ConfigFromProfile 从 xresilconf 档案桥接。
// 同一键首次 Execute 时配置被校验并固化，后续传入的配置被忽略。
package xguard
