//go:build linux || darwin || freebsd

package handler

import "golang.org/x/sys/unix"

// diskUsage returns the total and available bytes of the filesystem holding path.
func diskUsage(path string) (total, free uint64, ok bool) {
	var fs unix.Statfs_t
	if err := unix.Statfs(path, &fs); err != nil {
		return 0, 0, false
	}
	return fs.Blocks * uint64(fs.Bsize), fs.Bavail * uint64(fs.Bsize), true
}
