package archive

import (
	"path/filepath"
	"strings"
)

// Format identifies the container family of an archive, derived from its
// file name alone.
type Format int

const (
	FormatUnsupported Format = 0

	FormatZip Format = 100

	FormatTar    Format = 200
	FormatTarGz  Format = 201
	FormatTarBz2 Format = 202
	FormatTarXz  Format = 203

	FormatGzip  Format = 300
	FormatBzip2 Format = 301
	FormatXz    Format = 302

	FormatSevenZip Format = 400
	FormatRar      Format = 500
	FormatIso      Format = 600
)

var formatNames = map[Format]string{
	FormatZip:      "ZIP",
	FormatTar:      "TAR",
	FormatTarGz:    "TAR.GZ",
	FormatTarBz2:   "TAR.BZ2",
	FormatTarXz:    "TAR.XZ",
	FormatGzip:     "GZIP",
	FormatBzip2:    "BZIP2",
	FormatXz:       "XZ",
	FormatSevenZip: "7Z",
	FormatRar:      "RAR",
	FormatIso:      "ISO",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "UNSUPPORTED"
}

// IsTar is true for plain tar and every compressed tar variant
func (f Format) IsTar() bool {
	return f >= FormatTar && f <= FormatTarXz
}

// IsRawStream is true for bare compressed streams that hold a single file
func (f Format) IsRawStream() bool {
	return f >= FormatGzip && f <= FormatXz
}

// compound extensions: the long form only counts as a tarball
// when the stem itself ends in `.tar`
var compoundFormats = map[string]struct {
	tar   Format
	raw   Format
	short bool
}{
	"gz":   {FormatTarGz, FormatGzip, false},
	"tgz":  {FormatTarGz, FormatGzip, true},
	"bz2":  {FormatTarBz2, FormatBzip2, false},
	"tbz2": {FormatTarBz2, FormatBzip2, true},
	"tbz":  {FormatTarBz2, FormatBzip2, true},
	"xz":   {FormatTarXz, FormatXz, false},
	"txz":  {FormatTarXz, FormatXz, true},
}

// Detect maps an archive path to its Format by looking at its extension.
// It never opens the file: a misnamed archive surfaces later, as a
// Corrupted error from the backend.
func Detect(archivePath string) (Format, error) {
	name := strings.ToLower(filepath.Base(archivePath))
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	ext = strings.TrimPrefix(ext, ".")

	switch ext {
	case "zip":
		return FormatZip, nil
	case "7z":
		return FormatSevenZip, nil
	case "rar":
		return FormatRar, nil
	case "tar":
		return FormatTar, nil
	case "iso":
		return FormatIso, nil
	}

	if c, ok := compoundFormats[ext]; ok {
		if c.short || strings.HasSuffix(stem, ".tar") {
			return c.tar, nil
		}
		return c.raw, nil
	}

	return FormatUnsupported, unsupportedFormat(ext)
}
