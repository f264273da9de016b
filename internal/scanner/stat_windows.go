//go:build windows

package scanner

import "os"

// platformOwner on Windows reports no ownership; files are owned by SIDs,
// not numeric ids.
func platformOwner(info os.FileInfo) (uid, gid uint32, ok bool) {
	return 0, 0, false
}
