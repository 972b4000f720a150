//go:build windows

package handler

import "golang.org/x/sys/windows"

// diskUsage returns the total and available bytes of the volume holding path.
func diskUsage(path string) (total, free uint64, ok bool) {
	ptr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, 0, false
	}

	var totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(ptr, &free, &total, &totalFree); err != nil {
		return 0, 0, false
	}
	return total, free, true
}
