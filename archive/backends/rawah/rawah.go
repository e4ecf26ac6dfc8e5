// Package rawah handles bare compressed streams (.gz, .bz2, .xz), which
// hold exactly one file named after the archive.
package rawah

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/itchio/crowbar/archive"
	"github.com/itchio/crowbar/archive/backends/codecs"
	"github.com/pkg/errors"
)

type Handler struct {
}

var _ archive.Handler = (*Handler)(nil)

func (h *Handler) Name() string {
	return "raw"
}

func (h *Handler) Formats() []archive.Format {
	return []archive.Format{
		archive.FormatGzip,
		archive.FormatBzip2,
		archive.FormatXz,
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

	stats, err := f.Stat()
	if err != nil {
		return errors.WithStack(err)
	}

	compression := codecs.For(params.Format)
	raw := &archive.RawEntry{
		Name: EntryName(params.Path),
		Kind: archive.EntryFile,
	}
	compressedSize := uint64(stats.Size())
	raw.CompressedSize = &compressedSize

	if compression == codecs.Gzip {
		size, err := gzipSize(f, stats.Size())
		if err != nil {
			return err
		}
		raw.Size = size
	}

	open := func() (io.ReadCloser, error) {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, errors.WithStack(err)
		}
		return codecs.NewReader(compression, f)
	}

	return cb(raw, open)
}

// EntryName is the archive's base name without its compression extension
func EntryName(archivePath string) string {
	name := filepath.Base(archivePath)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		return name
	}
	return stem
}

// gzipSize reads the ISIZE trailer, the uncompressed size modulo 2^32 of
// the last member. It is a hint, never trusted for the size limit.
func gzipSize(f *os.File, fileSize int64) (uint64, error) {
	if fileSize < 18 {
		return 0, errors.Errorf("gzip stream too short (%d bytes)", fileSize)
	}

	var trailer [4]byte
	if _, err := f.ReadAt(trailer[:], fileSize-4); err != nil {
		return 0, errors.Wrap(err, "reading gzip trailer")
	}
	return uint64(binary.LittleEndian.Uint32(trailer[:])), nil
}
