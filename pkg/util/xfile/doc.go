// Package xfile 提供日志落盘所需的文件系统辅助函数。
//
// 本包只处理路径与目录，不做任何文件内容读写：
//
//   - [SanitizePath]: 规范化活动日志文件路径，拒绝空路径、空字节、相对穿越和目录路径
//   - [EnsureDir] / [EnsureDirWithPerm]: 确保文件的父目录存在
//   - [EnsureDirPath]: 确保目录本身存在（归档目录使用）
//   - [JoinName]: 将单个文件名拼接到目录下，拒绝任何形式的路径分隔与穿越
//   - [Stem]: 去掉扩展名后的路径（"/var/log/app.log" -> "/var/log/app"）
//
// # 路径穿越检测
//
// 只有 ".." 作为独立路径段时才视为穿越。"app..2024.log" 这类文件名是合法的。
//
// # 空字节
//
// 所有入口都拒绝包含 \x00 的路径。内核在 VFS 层会在空字节处截断，
// Go 侧看到的路径与实际操作的路径会不一致。
//
// # 错误处理
//
// 预定义错误支持 [errors.Is]：
//
//	if _, err := xfile.JoinName(dir, "../x.gz"); errors.Is(err, xfile.ErrInvalidName) {
//	    // 名称不是单个路径段
//	}
package xfile
