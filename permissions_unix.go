//go:build !windows

package main

import (
	"fmt"
	"os"
	"syscall"
)

// writeDenialHint explains, from permission bits alone, why the current user
// cannot create files in dir. It returns "" when the bits allow it or the
// owner cannot be determined.
func writeDenialHint(dir string) string {
	info, err := os.Stat(dir)
	if err != nil {
		return ""
	}

	perms := info.Mode().Perm()

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return ""
	}

	fileUID := int(stat.Uid)
	fileGID := int(stat.Gid)

	const wx = 0o3
	switch {
	case fileUID == os.Geteuid():
		if (perms>>6)&wx != wx {
			return fmt.Sprintf("%s: owner lacks write or search bit (mode %s)", dir, perms)
		}
		return ""
	case fileGID == os.Getegid() || inGroups(fileGID):
		if (perms>>3)&wx != wx {
			return fmt.Sprintf("%s: group lacks write or search bit (mode %s)", dir, perms)
		}
		return ""
	}

	if perms&wx != wx {
		return fmt.Sprintf("%s: others lack write or search bit (mode %s)", dir, perms)
	}
	return ""
}

func inGroups(gid int) bool {
	groups, err := syscall.Getgroups()
	if err != nil {
		return false
	}
	for _, g := range groups {
		if g == gid {
			return true
		}
	}
	return false
}
