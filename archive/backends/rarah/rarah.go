package rarah

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/itchio/crowbar/archive"
	"github.com/nwaples/rardecode"
	"github.com/pkg/errors"
)

type Handler struct {
}

var _ archive.Handler = (*Handler)(nil)

func (h *Handler) Name() string {
	return "rar"
}

func (h *Handler) Formats() []archive.Format {
	return []archive.Format{archive.FormatRar}
}

func Register() {
	archive.RegisterHandler(&Handler{})
}

func (h *Handler) Walk(params *archive.WalkParams, cb archive.WalkFunc) error {
	consumer := params.GetConsumer()

	password := ""
	if params.Password != nil {
		password = *params.Password
	}
	translate := func(err error) error {
		return translateError(err, params.Password != nil)
	}

	// subsequent volumes are opened by the reader as it goes
	rc, err := rardecode.OpenReader(params.Path, password)
	if err != nil {
		return translate(err)
	}
	defer rc.Close()

	for {
		hdr, err := rc.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return translate(err)
		}

		consumed := false
		open := func() (io.ReadCloser, error) {
			if consumed {
				return nil, errors.Errorf("rar: %s can only be read once", hdr.Name)
			}
			consumed = true
			return &entryReader{r: rc, translate: translate}, nil
		}

		mode := hdr.Mode()
		raw := &archive.RawEntry{
			Name:        hdr.Name,
			Kind:        archive.KindFromMode(mode),
			Mode:        mode.Perm(),
			Undecodable: !utf8.ValidString(hdr.Name),
		}
		if hdr.IsDir {
			raw.Kind = archive.EntryDir
		}
		if !hdr.UnKnownSize && hdr.UnPackedSize > 0 {
			raw.Size = uint64(hdr.UnPackedSize)
		}
		if hdr.PackedSize > 0 {
			packed := uint64(hdr.PackedSize)
			raw.CompressedSize = &packed
		}

		if raw.Kind == archive.EntrySymlink && !params.ListOnly && !raw.Undecodable {
			linkname, err := archive.ReadLinkname(open)
			if err != nil {
				return translate(err)
			}
			raw.Linkname = linkname
		}

		if err := cb(raw, open); err != nil {
			return err
		}
	}

	if vols := rc.Volumes(); len(vols) > 1 {
		consumer.Debugf("rar: read %d volumes", len(vols))
	}
	return nil
}

// entryReader reads the current member. Closing it leaves the archive
// open; the next call to Next skips whatever was not read.
type entryReader struct {
	r         io.Reader
	translate func(error) error
}

func (er *entryReader) Read(p []byte) (int, error) {
	n, err := er.r.Read(p)
	if err != nil && err != io.EOF {
		err = er.translate(err)
	}
	return n, err
}

func (er *entryReader) Close() error {
	return nil
}

// translateError maps rardecode's diagnostics onto ErrPassword. RAR 4
// archives have no password check value, so a wrong key is only noticed
// as a checksum mismatch once the entry has been decoded.
func translateError(err error, hasPassword bool) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "incorrect password"):
		return errors.Wrap(archive.ErrPassword, msg)
	case hasPassword && strings.Contains(msg, "bad file checksum"):
		return errors.Wrap(archive.ErrPassword, msg)
	}
	return errors.WithStack(err)
}
