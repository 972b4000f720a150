//go:build !linux && !darwin && !freebsd && !windows

package handler

func diskUsage(string) (total, free uint64, ok bool) {
	return 0, 0, false
}
