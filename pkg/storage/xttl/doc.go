// Package xttl 提供带 TTL 的键值缓存，支持内存与 Redis 两种后端。
//
// # 设计理念
//
// xttl 面向"远端数据的本地兜底副本"场景：每个条目携带独立 TTL，
// 过期后读取视为未命中（返回 ErrMiss），条目本身在下次访问或
// 后台清扫时惰性删除。
//
// # 内存后端
//
// Memory 采用分片设计：xxhash 选择分片，每个分片是互斥锁保护的
// LRU（hashicorp/golang-lru simplelru）。容量打满时优先清理该分片内
// 已过期的条目，仍不够才按 LRU 淘汰。ttl <= 0 表示永不过期。
//
// 支持快照持久化：Snapshot/Restore 提供内存形态，
// WriteFile/ReadFile 提供版本化 JSON 文件形态（临时文件 + rename
// 原子写入）。加载时丢弃已过期的条目。
//
// # Redis 后端
//
// Redis 以 JSON 编码值，过期交由 Redis 原生 TTL 管理，
// 适合作为跨进程共享或进程重启后仍然可用的缓存层。
//
// # 统计
//
// Memory 维护命中/未命中/写入/删除/过期/淘汰计数（Stats），
// 供健康检查和可观测层聚合。
package xttl
