//go:build unix

package task

import (
	"io/fs"
	"syscall"
)

// fileID identifies a file independently of the path used to reach it.
type fileID struct {
	dev uint64
	ino uint64
}

func fileIDOf(info fs.FileInfo) (fileID, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok || st == nil {
		return fileID{}, false
	}
	return fileID{dev: uint64(st.Dev), ino: uint64(st.Ino)}, true
}
