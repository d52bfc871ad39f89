//go:build !windows

package platform

// LongPathname returns path unchanged outside Windows.
func LongPathname(path string) string {
	return path
}
