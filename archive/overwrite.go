package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// maxRenameAttempts bounds the search for a free " (n)" name, so that an
// archive full of identically-named entries cannot loop forever.
const maxRenameAttempts = 999

// ResolveOverwrite returns the path an entry should be written to.
//
// Replace and Skip always return target: Skip is enforced at write time,
// with an exclusive create. Rename returns target if it is free, otherwise
// the first free "stem (n).ext" for n in 1..999.
func ResolveOverwrite(target string, mode OverwriteMode) (string, error) {
	if mode != OverwriteRename {
		return target, nil
	}

	if !exists(target) {
		return target, nil
	}

	dir, name := filepath.Split(target)
	stem, ext := splitExt(name)

	for n := 1; n <= maxRenameAttempts; n++ {
		candidate := filepath.Join(dir, renameCandidate(stem, ext, n))
		if !exists(candidate) {
			return candidate, nil
		}
	}

	return "", ioError(errors.Wrapf(os.ErrExist, "could not find unique filename for %s", target))
}

func renameCandidate(stem string, ext string, n int) string {
	if ext == "" {
		return fmt.Sprintf("%s (%d)", stem, n)
	}
	return fmt.Sprintf("%s (%d).%s", stem, n, ext)
}

// splitExt splits "a.tar.gz" into "a.tar" and "gz". Dotfiles such as
// ".bashrc" have no extension.
func splitExt(name string) (string, string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i+1:]
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
