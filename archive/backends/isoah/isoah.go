package isoah

import (
	"io"
	"os"
	"path"

	"github.com/itchio/crowbar/archive"
	"github.com/kdomanski/iso9660"
	"github.com/pkg/errors"
)

// maxDepth bounds directory recursion, the image may contain cycles
const maxDepth = 64

type Handler struct {
}

var _ archive.Handler = (*Handler)(nil)

func (h *Handler) Name() string {
	return "iso"
}

func (h *Handler) Formats() []archive.Format {
	return []archive.Format{archive.FormatIso}
}

func Register() {
	archive.RegisterHandler(&Handler{})
}

func (h *Handler) Walk(params *archive.WalkParams, cb archive.WalkFunc) error {
	f, err := os.Open(params.Path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	img, err := iso9660.OpenImage(f)
	if err != nil {
		return errors.Wrap(err, "opening ISO 9660 image")
	}

	root, err := img.RootDir()
	if err != nil {
		return errors.Wrap(err, "reading root directory")
	}

	w := &walker{cb: cb}
	return w.walkDir(root, "", 0)
}

type walker struct {
	cb archive.WalkFunc
}

func (w *walker) walkDir(dir *iso9660.File, prefix string, depth int) error {
	if depth > maxDepth {
		return errors.Errorf("directory nesting deeper than %d levels at %s", maxDepth, prefix)
	}

	children, err := dir.GetChildren()
	if err != nil {
		return errors.Wrapf(err, "listing %s", prefix)
	}

	for _, child := range children {
		name := child.Name()
		switch name {
		case "", ".", "..", "\x00", "\x01":
			continue
		}
		entryPath := path.Join(prefix, name)

		if child.IsDir() {
			raw := &archive.RawEntry{
				Name: entryPath + "/",
				Kind: archive.EntryDir,
				Mode: archive.DirMode,
			}
			if err := w.cb(raw, emptyOpen); err != nil {
				return err
			}
			if err := w.walkDir(child, entryPath, depth+1); err != nil {
				return err
			}
			continue
		}

		child := child
		raw := &archive.RawEntry{
			Name: entryPath,
			Kind: archive.EntryFile,
		}
		if size := child.Size(); size > 0 {
			raw.Size = uint64(size)
		}
		open := func() (io.ReadCloser, error) {
			return io.NopCloser(child.Reader()), nil
		}
		if err := w.cb(raw, open); err != nil {
			return err
		}
	}
	return nil
}

func emptyOpen() (io.ReadCloser, error) {
	return nil, errors.New("directories have no contents")
}
