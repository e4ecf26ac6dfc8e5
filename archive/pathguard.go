package archive

import (
	"strings"
	"unicode/utf8"
)

// ValidatePath checks an entry path as found in an archive and returns it
// normalized: forward slashes, no empty or `.` segments.
//
// Absolute paths (including `C:` drive and UNC forms) and any `..` segment,
// wherever it appears, are rejected. Both `/` and `\` count as separators
// so the result is the same on every platform.
func ValidatePath(entryPath string) (string, error) {
	if isAbsolute(entryPath) {
		return "", securityError(SecurityAbsolutePath, entryPath)
	}

	if !utf8.ValidString(entryPath) {
		return "", securityError(SecurityPathTraversal, entryPath)
	}

	var segments []string
	for _, seg := range splitSegments(entryPath) {
		switch seg {
		case "", ".":
			continue
		case "..":
			return "", securityError(SecurityPathTraversal, entryPath)
		}
		segments = append(segments, seg)
	}

	if len(segments) == 0 {
		return "", securityError(SecurityPathTraversal, entryPath)
	}

	return strings.Join(segments, "/"), nil
}

// StripComponents drops the first n segments of a normalized path.
// The result is empty if nothing is left.
func StripComponents(normalized string, n uint32) string {
	if n == 0 {
		return normalized
	}
	segments := strings.Split(normalized, "/")
	if int(n) >= len(segments) {
		return ""
	}
	return strings.Join(segments[n:], "/")
}

func splitSegments(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == '\\'
	})
}

func isAbsolute(p string) bool {
	if p == "" {
		return false
	}
	if p[0] == '/' || p[0] == '\\' {
		return true
	}
	// drive letters: `C:`, `C:\foo`, `c:foo`
	if len(p) >= 2 && p[1] == ':' && isASCIILetter(p[0]) {
		return true
	}
	return false
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
