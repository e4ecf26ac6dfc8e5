package tarah

import (
	"archive/tar"
	"io"
	"os"

	"github.com/itchio/crowbar/archive"
	"github.com/itchio/crowbar/archive/backends/codecs"
	"github.com/pkg/errors"
)

type Handler struct {
}

var _ archive.Handler = (*Handler)(nil)

func (h *Handler) Name() string {
	return "tar"
}

func (h *Handler) Formats() []archive.Format {
	return []archive.Format{
		archive.FormatTar,
		archive.FormatTarGz,
		archive.FormatTarBz2,
		archive.FormatTarXz,
	}
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

	compression := codecs.For(params.Format)
	r, err := codecs.NewReader(compression, f)
	if err != nil {
		return err
	}
	defer r.Close()
	if compression != codecs.None {
		params.GetConsumer().Debugf("tar: decompressing %s stream", compression)
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return errors.Wrap(err, "reading tar header")
		}
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			// pax metadata for the whole archive, not a member
			continue
		}

		raw := &archive.RawEntry{
			Name:     hdr.Name,
			Kind:     kindOf(hdr.Typeflag),
			Linkname: hdr.Linkname,
			Mode:     os.FileMode(hdr.Mode).Perm(),
		}
		if raw.Kind == archive.EntryFile && hdr.Size > 0 {
			raw.Size = uint64(hdr.Size)
		}

		consumed := false
		open := func() (io.ReadCloser, error) {
			if consumed {
				return nil, errors.Errorf("tar: %s can only be read once", hdr.Name)
			}
			consumed = true
			return io.NopCloser(tr), nil
		}

		if err := cb(raw, open); err != nil {
			return err
		}
	}
}

// kindOf maps a typeflag to an entry kind. The reader already turns the
// legacy '\x00' flag into TypeReg or TypeDir, and reassembles old GNU
// sparse members, so those read like regular files.
func kindOf(typeflag byte) archive.EntryKind {
	switch typeflag {
	case tar.TypeReg, tar.TypeCont, tar.TypeGNUSparse:
		return archive.EntryFile
	case tar.TypeDir:
		return archive.EntryDir
	case tar.TypeSymlink:
		return archive.EntrySymlink
	case tar.TypeLink:
		return archive.EntryHardlink
	}
	return archive.EntryOther
}
