// Package xfallback 提供有序降级链。
//
// # 设计理念
//
// 主路径失败后，按声明顺序逐个尝试降级提供者（Provider），
// 第一个成功的结果即为最终结果。提供者可以是缓存读取、
// 备用数据源调用或静态兜底值，任意实现 Provider 接口的类型均可参与。
//
// 降级链自身不做重试、不做熔断：它只负责"按顺序问一圈"。
// 重试与熔断由 xretry 和 xbreaker 在链的上游完成。
//
// # 错误聚合
//
// 全链失败时返回 *ExhaustedError，按发生顺序携带主路径错误
// 与每个提供者的错误，通过 Unwrap() []error 支持 errors.Is/As
// 匹配其中任意一个。
//
// 每个提供者尝试之间都会检查 context，取消后立即中止。
package xfallback
