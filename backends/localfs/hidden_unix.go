//go:build !windows

package localfs

// isHidden reports platform-specific hidden attributes. Unix has none beyond
// the leading dot, which is checked separately.
func isHidden(hostPath string) bool {
	return false
}
