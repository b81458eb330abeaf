// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 文件操作工具，目录创建、路径净化、扩展名处理
//   - xflock: 基于 flock(2) 的跨进程文件锁
//   - xjson: JSON 输出工具，JSON Lines 与格式化输出
//   - xkeylock: 基于 key 的进程内互斥锁，支持 context 超时和非阻塞获取
//
// 设计原则：
//   - 安全处理路径遍历和符号链接
//   - 跨平台兼容
package util
