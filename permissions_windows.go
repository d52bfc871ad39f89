//go:build windows

package main

// Windows ACLs don't map to POSIX-style permission bits, so no hint is derived.
func writeDenialHint(_ string) string {
	return ""
}
