package zipah

import (
	"io"
	"strings"

	"github.com/alexmullins/zip"
	"github.com/itchio/crowbar/archive"
	"github.com/pkg/errors"
)

type Handler struct {
}

var _ archive.Handler = (*Handler)(nil)

func (h *Handler) Name() string {
	return "zip"
}

func (h *Handler) Formats() []archive.Format {
	return []archive.Format{archive.FormatZip}
}

func Register() {
	archive.RegisterHandler(&Handler{})
}

func (h *Handler) Walk(params *archive.WalkParams, cb archive.WalkFunc) error {
	rc, err := zip.OpenReader(params.Path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer rc.Close()

	names := normalizeNames(rc.File, params.GetConsumer())

	for i, f := range rc.File {
		f := f
		open := func() (io.ReadCloser, error) {
			return openEntry(f, params.Password)
		}

		raw := &archive.RawEntry{
			Name:      names[i],
			Kind:      archive.KindFromMode(f.Mode()),
			Size:      f.UncompressedSize64,
			Mode:      f.Mode().Perm(),
			Encrypted: f.IsEncrypted(),
		}
		compressedSize := f.CompressedSize64
		raw.CompressedSize = &compressedSize

		// some archivers only mark directories with a trailing slash
		if strings.HasSuffix(f.Name, "/") || strings.HasSuffix(f.Name, "\\") {
			raw.Kind = archive.EntryDir
		}

		if raw.Kind == archive.EntrySymlink && !params.ListOnly {
			linkname, err := archive.ReadLinkname(open)
			if err != nil {
				return err
			}
			raw.Linkname = linkname
		}

		if err := cb(raw, open); err != nil {
			return err
		}
	}

	return nil
}

func openEntry(f *zip.File, password *string) (io.ReadCloser, error) {
	if f.IsEncrypted() {
		if password == nil {
			return nil, errors.Wrapf(archive.ErrPassword, "%s is encrypted", f.Name)
		}
		f.SetPassword(*password)
	}

	r, err := f.Open()
	if err != nil {
		return nil, translateError(f, err)
	}
	return &entryReader{f: f, rc: r}, nil
}

// entryReader reports authentication failures, which only show up once
// the whole entry has been read, as password errors
type entryReader struct {
	f  *zip.File
	rc io.ReadCloser
}

func (er *entryReader) Read(p []byte) (int, error) {
	n, err := er.rc.Read(p)
	if err != nil && err != io.EOF {
		err = translateError(er.f, err)
	}
	return n, err
}

func (er *entryReader) Close() error {
	return er.rc.Close()
}

func translateError(f *zip.File, err error) error {
	switch err {
	case zip.ErrPassword, zip.ErrDecryption, zip.ErrAuthentication:
		return errors.Wrapf(archive.ErrPassword, "%s: %s", f.Name, err.Error())
	}
	return errors.WithStack(err)
}
