// Package codecs wraps the stream compressors shared by the tar and raw
// stream backends.
package codecs

import (
	"bufio"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/itchio/crowbar/archive"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

const bufferSize = 256 * 1024

// Compression is the stream codec wrapped around a payload
type Compression int

const (
	None Compression = iota
	Gzip
	Bzip2
	Xz
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case Xz:
		return "xz"
	}
	return "none"
}

// For returns the compression layer of a tar or raw stream format
func For(f archive.Format) Compression {
	switch f {
	case archive.FormatTarGz, archive.FormatGzip:
		return Gzip
	case archive.FormatTarBz2, archive.FormatBzip2:
		return Bzip2
	case archive.FormatTarXz, archive.FormatXz:
		return Xz
	}
	return None
}

// NewReader decompresses r. Closing the result does not close r.
func NewReader(c Compression, r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReaderSize(r, bufferSize)

	switch c {
	case Gzip:
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "reading gzip header")
		}
		return gr, nil
	case Bzip2:
		bzr, err := bzip2.NewReader(br, nil)
		if err != nil {
			return nil, errors.Wrap(err, "reading bzip2 header")
		}
		return bzr, nil
	case Xz:
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "reading xz header")
		}
		return io.NopCloser(xr), nil
	}
	return io.NopCloser(br), nil
}

// NewWriter compresses into w. Closing the result flushes the stream
// but does not close w.
func NewWriter(c Compression, w io.Writer) (io.WriteCloser, error) {
	switch c {
	case Gzip:
		return gzip.NewWriter(w), nil
	case Bzip2:
		bzw, err := bzip2.NewWriter(w, &bzip2.WriterConfig{})
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return bzw, nil
	case Xz:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return xw, nil
	}
	return nopWriteCloser{w}, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}
