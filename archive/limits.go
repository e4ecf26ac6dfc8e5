package archive

import (
	"path"
	"strings"
)

// CheckSize fails if total goes over limit. A nil limit means unlimited.
func CheckSize(total uint64, limit *uint64) error {
	if limit == nil {
		return nil
	}
	if total > *limit {
		return sizeLimitExceeded(total, *limit)
	}
	return nil
}

// addSize sums two byte counts, saturating instead of wrapping around
func addSize(a uint64, b uint64) uint64 {
	if a+b < a {
		return ^uint64(0)
	}
	return a + b
}

// IsAdmissible decides whether an entry kind may be extracted at all.
// Devices, FIFOs, sockets and unknown types never are, whatever the options.
func IsAdmissible(kind EntryKind, opts *ExtractOptions) bool {
	switch kind {
	case EntryFile, EntryDir:
		return true
	case EntrySymlink:
		return opts != nil && opts.AllowSymlinks
	case EntryHardlink:
		return opts != nil && opts.AllowHardlinks
	}
	return false
}

// validateSymlinkTarget makes sure a symlink written at linkPath (relative
// to the output root) cannot point outside of it.
func validateSymlinkTarget(linkPath string, target string) error {
	if target == "" || isAbsolute(target) {
		return securityError(SecurityAbsolutePath, target)
	}

	depth := strings.Count(path.Dir(linkPath), "/")
	if path.Dir(linkPath) != "." {
		depth++
	}

	for _, seg := range splitSegments(target) {
		switch seg {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return securityError(SecurityPathTraversal, target)
			}
		default:
			depth++
		}
	}
	return nil
}
