package zipah

import (
	"bytes"
	"unicode/utf8"

	"github.com/alexmullins/zip"
	"github.com/gogits/chardet"
	"github.com/itchio/headway/state"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

const (
	nameEncodingSampleSize = 4096

	// general purpose bit 11: names are UTF-8
	flagUTF8 = 0x800
)

// normalizeNames returns the names of all entries as UTF-8.
//
// Zip names without the UTF-8 flag are historically CP-437, except when
// the archive was made on a Japanese system, in which case they're
// usually Shift-JIS. Non-UTF-8 names are sampled into one buffer and the
// encoding is guessed from there, falling back to CP-437.
func normalizeNames(files []*zip.File, consumer *state.Consumer) []string {
	names := make([]string, len(files))

	buf := new(bytes.Buffer)
	buf.Grow(nameEncodingSampleSize)

	hasNonUTF8 := false
	for i, f := range files {
		names[i] = f.Name
		if needsDecoding(f) {
			hasNonUTF8 = true
			if buf.Len() < nameEncodingSampleSize {
				buf.WriteString(f.Name)
				buf.WriteByte(' ')
			}
		}
	}

	if !hasNonUTF8 {
		return names
	}

	var enc encoding.Encoding = charmap.CodePage437
	res, err := chardet.NewTextDetector().DetectBest(buf.Bytes())
	if err == nil && res.Confidence > 70 && res.Charset == "Shift_JIS" {
		enc = japanese.ShiftJIS
	}
	consumer.Debugf("zip: decoding legacy entry names as %v", enc)

	decoder := enc.NewDecoder()
	for i, f := range files {
		if !needsDecoding(f) {
			continue
		}
		if decoded, err := decoder.String(f.Name); err == nil {
			names[i] = decoded
		}
	}
	return names
}

func needsDecoding(f *zip.File) bool {
	return f.Flags&flagUTF8 == 0 && !utf8.ValidString(f.Name)
}
