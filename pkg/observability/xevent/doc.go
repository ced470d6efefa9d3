// Package xevent 定义弹性组件的观测事件与观察者接口。
//
// # 设计理念
//
// xguard、xbreaker、xretry 等弹性组件在关键节点发出结构化事件：
// 操作结局、熔断器状态迁移、重试尝试、缓存访问。
// Observer 接口把"发生了什么"与"如何记录"解耦——
// 组件只负责发事件，落到日志、指标还是测试断言由观察者决定。
//
// # 内置观察者
//
//   - Noop：丢弃所有事件（默认）
//   - Multi：扇出到多个观察者
//   - Funcs：函数适配器，测试与轻量集成的首选
//   - NewOTelObserver：OpenTelemetry 计数器
//
// 观察者回调在调用方的 goroutine 中同步执行，
// 实现方不应在回调中做阻塞操作。
package xevent
