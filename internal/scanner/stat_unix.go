//go:build !windows

package scanner

import (
	"os"
	"syscall"
)

// platformOwner extracts uid and gid from the platform stat structure.
func platformOwner(info os.FileInfo) (uid, gid uint32, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}
	return stat.Uid, stat.Gid, true
}
