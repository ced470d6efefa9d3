// Package xresilconf 提供弹性策略的配置档案（Profile）加载与合并。
//
// # 配置格式
//
// 支持 YAML 与 JSON，顶层结构为一个默认档案加按操作 key 的覆盖表：
//
//	default:
//	  failure_threshold: 5
//	  success_threshold: 1
//	  open_timeout: 60s
//	  max_attempts: 3
//	  base_delay: 100ms
//	  max_delay: 30s
//	  jitter_ratio: 0.1
//	  cache_ttl: 5m
//	  cache_capacity: 1024
//	operations:
//	  weather-api:
//	    failure_threshold: 3
//	    open_timeout: 30s
//
// # 合并语义
//
// Registry.Profile(key) 把命名档案叠加在默认档案之上：
// 零值字段继承默认值，非零字段覆盖。未知 key 直接返回默认档案。
//
// 文件解析基于 koanf（YAML/JSON，按扩展名识别格式）。
package xresilconf
