package library

import "strings"

var removableRoots = []string{"/mnt/", "/media/", "file:///mnt/", "file:///media/"}

// IsFromRemovableMedia reports whether path lives under a removable media
// mount point. Covers of such files are kept when the files go away.
func IsFromRemovableMedia(path string) bool {
	for _, root := range removableRoots {
		if strings.HasPrefix(path, root) {
			return true
		}
	}
	return false
}
