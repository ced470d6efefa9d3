// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xevent: 弹性组件的观测事件与观察者接口，内置 OpenTelemetry 计数器
//
// 设计原则：
//   - 组件只发事件，落地方式（日志、指标、测试断言）由观察者决定
//   - 遵循 OpenTelemetry 语义规范
package observability
