package archive

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dchest/safefile"
	"github.com/itchio/headway/state"
	"github.com/pkg/errors"
)

const (
	// DirMode is used for every directory the sink creates
	DirMode = 0755
	// FileMode is used for files, ExecMode when the entry was executable
	FileMode = 0644
	ExecMode = 0755

	// maxExclusiveAttempts bounds Rename retries when another writer wins
	// the race for a resolved name
	maxExclusiveAttempts = 3
)

var onWindows = runtime.GOOS == "windows"

// FolderSink writes validated entries under Directory. Every path it is
// handed is relative, normalized and already checked by ValidatePath.
type FolderSink struct {
	Directory string
	Consumer  *state.Consumer
}

// EntryWriter receives the bytes of a single file. Nothing is visible
// under its final name until Commit; Abort discards everything.
type EntryWriter interface {
	io.Writer
	Commit() error
	Abort()
	// Path is where the file ends up, which may differ from the requested
	// one when renaming
	Path() string
}

func (fs *FolderSink) destPath(rel string) string {
	return filepath.Join(fs.Directory, filepath.FromSlash(rel))
}

// checkParents refuses to go through a symlink on the way to rel, so that
// a link extracted earlier cannot redirect later entries out of Directory.
func (fs *FolderSink) checkParents(rel string) error {
	segments := strings.Split(rel, "/")
	current := fs.Directory
	for _, seg := range segments[:len(segments)-1] {
		current = filepath.Join(current, seg)
		stats, err := os.Lstat(current)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return ioError(errors.WithStack(err))
		}
		if stats.Mode()&os.ModeSymlink != 0 {
			return securityError(SecurityPathTraversal, rel)
		}
	}
	return nil
}

func (fs *FolderSink) prepare(rel string) (string, error) {
	if err := fs.checkParents(rel); err != nil {
		return "", err
	}

	dst := fs.destPath(rel)
	if err := os.MkdirAll(filepath.Dir(dst), DirMode); err != nil {
		return "", ioError(errors.Wrap(err, "creating parent directories"))
	}
	return dst, nil
}

// Mkdir creates a directory entry if it does not exist yet
func (fs *FolderSink) Mkdir(rel string) error {
	if err := fs.checkParents(rel); err != nil {
		return err
	}

	dst := fs.destPath(rel)
	stats, err := os.Lstat(dst)
	if err == nil {
		if stats.IsDir() {
			return nil
		}
		if stats.Mode()&os.ModeSymlink != 0 {
			return securityError(SecurityPathTraversal, rel)
		}
	}

	if err := os.MkdirAll(dst, DirMode); err != nil {
		return ioError(errors.Wrap(err, "creating directory"))
	}
	return nil
}

// GetWriter opens the destination of a file entry according to mode.
// It returns a nil writer when the entry must be skipped.
func (fs *FolderSink) GetWriter(rel string, mode OverwriteMode, perm os.FileMode) (EntryWriter, error) {
	dst, err := fs.prepare(rel)
	if err != nil {
		return nil, err
	}

	switch mode {
	case OverwriteReplace:
		if stats, err := os.Lstat(dst); err == nil && stats.IsDir() {
			return nil, ioError(errors.Errorf("cannot replace directory %s with a file", dst))
		}
		f, err := safefile.Create(dst, perm)
		if err != nil {
			return nil, ioError(errors.Wrap(err, "creating file"))
		}
		return &atomicWriter{f: f, path: dst}, nil

	case OverwriteSkip:
		f, err := createExclusive(dst, perm)
		if err != nil {
			if os.IsExist(err) {
				fs.Consumer.Debugf("Skipping existing %s", rel)
				return nil, nil
			}
			return nil, ioError(errors.Wrap(err, "creating file"))
		}
		return &exclusiveWriter{f: f, path: dst}, nil

	default:
		for attempt := 0; attempt < maxExclusiveAttempts; attempt++ {
			resolved, err := ResolveOverwrite(dst, OverwriteRename)
			if err != nil {
				return nil, err
			}
			f, err := createExclusive(resolved, perm)
			if err == nil {
				if resolved != dst {
					fs.Consumer.Debugf("%s exists, writing %s instead", rel, filepath.Base(resolved))
				}
				return &exclusiveWriter{f: f, path: resolved}, nil
			}
			if !os.IsExist(err) {
				return nil, ioError(errors.Wrap(err, "creating file"))
			}
		}
		return nil, ioError(errors.Wrapf(os.ErrExist, "could not claim a unique filename for %s", dst))
	}
}

// Symlink creates a symbolic link. On Windows the link target is written
// as a regular file instead, since creating links needs privileges there.
func (fs *FolderSink) Symlink(rel string, linkname string, mode OverwriteMode) (string, error) {
	if onWindows {
		w, err := fs.GetWriter(rel, mode, FileMode)
		if err != nil || w == nil {
			return "", err
		}
		if _, err := w.Write([]byte(linkname)); err != nil {
			w.Abort()
			return "", ioError(errors.WithStack(err))
		}
		return w.Path(), w.Commit()
	}

	dst, err := fs.prepareLink(rel, mode)
	if err != nil || dst == "" {
		return "", err
	}

	if err := os.Symlink(linkname, dst); err != nil {
		return "", ioError(errors.Wrap(err, "creating symlink"))
	}
	return dst, nil
}

// Hardlink links rel to src, the absolute path of a file this sink wrote
// earlier in the same run
func (fs *FolderSink) Hardlink(rel string, src string, mode OverwriteMode) (string, error) {
	stats, err := os.Lstat(src)
	if err != nil {
		return "", ioError(errors.Wrapf(err, "hardlink target %s", src))
	}
	if !stats.Mode().IsRegular() {
		return "", securityError(SecurityUnsafeEntryType, src)
	}

	dst, err := fs.prepareLink(rel, mode)
	if err != nil || dst == "" {
		return "", err
	}

	if err := os.Link(src, dst); err != nil {
		return "", ioError(errors.Wrap(err, "creating hardlink"))
	}
	return dst, nil
}

// prepareLink returns where a link should be created, or "" to skip it
func (fs *FolderSink) prepareLink(rel string, mode OverwriteMode) (string, error) {
	dst, err := fs.prepare(rel)
	if err != nil {
		return "", err
	}

	if !exists(dst) {
		return dst, nil
	}

	switch mode {
	case OverwriteSkip:
		fs.Consumer.Debugf("Skipping existing %s", rel)
		return "", nil
	case OverwriteReplace:
		stats, err := os.Lstat(dst)
		if err == nil && stats.IsDir() {
			return "", ioError(errors.Errorf("cannot replace directory %s with a link", dst))
		}
		if err := os.Remove(dst); err != nil {
			return "", ioError(errors.Wrap(err, "removing previous file"))
		}
		return dst, nil
	default:
		return ResolveOverwrite(dst, OverwriteRename)
	}
}

func createExclusive(path string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
}

// atomicWriter writes to a temporary file that replaces the destination
// on Commit
type atomicWriter struct {
	f    *safefile.File
	path string
}

func (aw *atomicWriter) Write(p []byte) (int, error) {
	return aw.f.Write(p)
}

func (aw *atomicWriter) Commit() error {
	if err := aw.f.Commit(); err != nil {
		return ioError(errors.Wrap(err, "committing file"))
	}
	return nil
}

func (aw *atomicWriter) Abort() {
	// closing without committing removes the temporary file
	aw.f.Close()
}

func (aw *atomicWriter) Path() string {
	return aw.path
}

// exclusiveWriter writes in place to a file it created itself, and
// removes it again if aborted
type exclusiveWriter struct {
	f    *os.File
	path string
}

func (ew *exclusiveWriter) Write(p []byte) (int, error) {
	return ew.f.Write(p)
}

func (ew *exclusiveWriter) Commit() error {
	if err := ew.f.Close(); err != nil {
		os.Remove(ew.path)
		return ioError(errors.Wrap(err, "closing file"))
	}
	return nil
}

func (ew *exclusiveWriter) Abort() {
	ew.f.Close()
	os.Remove(ew.path)
}

func (ew *exclusiveWriter) Path() string {
	return ew.path
}

func permFor(mode os.FileMode) os.FileMode {
	if mode&0111 != 0 {
		return ExecMode
	}
	return FileMode
}
