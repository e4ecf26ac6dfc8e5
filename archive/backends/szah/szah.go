package szah

import (
	"io"
	"unicode/utf8"

	"github.com/bodgit/sevenzip"
	"github.com/itchio/crowbar/archive"
	"github.com/pkg/errors"
)

type Handler struct {
}

var _ archive.Handler = (*Handler)(nil)

func (h *Handler) Name() string {
	return "7z"
}

func (h *Handler) Formats() []archive.Format {
	return []archive.Format{archive.FormatSevenZip}
}

func Register() {
	archive.RegisterHandler(&Handler{})
}

func (h *Handler) Walk(params *archive.WalkParams, cb archive.WalkFunc) error {
	consumer := params.GetConsumer()

	var rc *sevenzip.ReadCloser
	var err error
	if params.Password != nil {
		rc, err = sevenzip.OpenReaderWithPassword(params.Path, *params.Password)
	} else {
		rc, err = sevenzip.OpenReader(params.Path)
	}
	if err != nil {
		return translateError(err)
	}
	defer rc.Close()

	consumer.Debugf("7z: %d entries", len(rc.File))

	for _, f := range rc.File {
		f := f
		open := func() (io.ReadCloser, error) {
			r, err := f.Open()
			if err != nil {
				return nil, translateError(err)
			}
			return &entryReader{rc: r}, nil
		}

		mode := f.Mode()
		raw := &archive.RawEntry{
			Name:        f.Name,
			Kind:        archive.KindFromMode(mode),
			Size:        f.UncompressedSize,
			Mode:        mode.Perm(),
			Undecodable: !utf8.ValidString(f.Name),
		}

		if raw.Kind == archive.EntrySymlink && !params.ListOnly && !raw.Undecodable {
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

type entryReader struct {
	rc io.ReadCloser
}

func (er *entryReader) Read(p []byte) (int, error) {
	n, err := er.rc.Read(p)
	if err != nil && err != io.EOF {
		err = translateError(err)
	}
	return n, err
}

func (er *entryReader) Close() error {
	return er.rc.Close()
}

// translateError flags read failures on encrypted folders as password
// errors: a wrong key only shows up as garbage for the decompressor.
func translateError(err error) error {
	var rerr *sevenzip.ReadError
	if errors.As(err, &rerr) && rerr.Encrypted {
		return errors.Wrap(archive.ErrPassword, rerr.Error())
	}
	var verr sevenzip.ReadError
	if errors.As(err, &verr) && verr.Encrypted {
		return errors.Wrap(archive.ErrPassword, verr.Error())
	}
	return errors.WithStack(err)
}
