//go:build windows

package localfs

import (
	"syscall"
)

// isHidden reports whether the Windows hidden attribute is set on hostPath
func isHidden(hostPath string) bool {
	p, err := syscall.UTF16PtrFromString(hostPath)
	if err != nil {
		return false
	}
	attrs, err := syscall.GetFileAttributes(p)
	if err != nil {
		return false
	}
	return attrs&syscall.FILE_ATTRIBUTE_HIDDEN != 0
}
