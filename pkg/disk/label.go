package disk

import (
	"fmt"
	"path/filepath"
)

// ByLabelDir is where udev publishes filesystem labels as device symlinks.
const ByLabelDir = "/dev/disk/by-label"

// ByLabelPath returns the by-label symlink path for label.
func ByLabelPath(label string) string {
	return ByLabelDir + "/" + label
}

// ResolveLabel follows the by-label symlink for label under dir and returns
// the canonical device path. A label that does not resolve is an error; the
// caller treats that as a failed filesystem creation. dir is ByLabelDir
// outside of tests.
func ResolveLabel(dir, label string) (string, error) {
	resolved, err := filepath.EvalSymlinks(filepath.Join(dir, label))
	if err != nil {
		return "", fmt.Errorf("filesystem label %q did not resolve: %w", label, err)
	}
	return resolved, nil
}
