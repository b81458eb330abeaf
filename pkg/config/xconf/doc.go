// Package xconf 基于 koanf 的配置加载器。
//
// 负责文件或字节数据的加载、反序列化与热重载，不负责校验和默认值注入，
// 这些由使用方在 Unmarshal 之后完成。
//
// # 支持的格式
//
//   - YAML：.yaml, .yml
//   - JSON：.json
//
// # 并发安全
//
// Reload 解析成功后才替换内部 koanf 实例，解析失败时旧配置保持不变。
// Client 返回的是调用时刻的快照。
//
// # 配置监视
//
// [Watch] 基于 fsnotify 监视配置文件所在目录（兼容编辑器先写临时文件再 rename 的保存方式），
// 多次变更在防抖窗口内合并为一次重载。[Watcher.Run] 阻塞到 ctx 结束，
// 适合交给 xrun.Group 管理。
package xconf
