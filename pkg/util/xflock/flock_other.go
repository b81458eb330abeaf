//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly && !windows

package xflock

import "os"

// 不支持文件锁的平台上只保留进程内语义。
func lockFile(*os.File, bool) (bool, error) { return true, nil }

func unlockFile(*os.File) error { return nil }
