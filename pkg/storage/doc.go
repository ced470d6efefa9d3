// Package storage 提供数据存储相关的子包。
//
// 子包列表：
//   - xttl: 带 TTL 的键值缓存，内存（分片 LRU + JSON 快照）与 Redis 两种后端
//
// 设计原则：
//   - 提供统一的接口抽象，支持多种存储后端
//   - 过期语义一致：条目级 TTL，过期读取视为未命中
package storage
