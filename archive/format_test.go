package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type FormatTest struct {
	fileName string
	result   Format
}

var formatTests = []FormatTest{
	{"foo_bar.zip", FormatZip},
	{"FOO_BAR.ZIP", FormatZip},
	{"foo_bar.tar", FormatTar},
	{"foo_bar.tar.gz", FormatTarGz},
	{"foo_bar.tgz", FormatTarGz},
	{"foo_bar.tar.bz2", FormatTarBz2},
	{"foo_bar.tbz2", FormatTarBz2},
	{"foo_bar.tbz", FormatTarBz2},
	{"foo_bar.tar.xz", FormatTarXz},
	{"foo_bar.txz", FormatTarXz},
	{"foo_bar.gz", FormatGzip},
	{"foo_bar.txt.gz", FormatGzip},
	{"foo_bar.bz2", FormatBzip2},
	{"foo_bar.xz", FormatXz},
	{"foo_bar.7z", FormatSevenZip},
	{"foo_bar.rar", FormatRar},
	{"foo_bar.iso", FormatIso},
	{"some/dir.zip/foo_bar.tar.GZ", FormatTarGz},
}

func TestDetect(t *testing.T) {
	for _, cas := range formatTests {
		format, err := Detect(cas.fileName)
		assert.NoError(t, err, cas.fileName)
		assert.Equal(t, cas.result, format, cas.fileName)
	}
}

func TestDetectUnsupported(t *testing.T) {
	for _, name := range []string{"foo_bar", "foo_bar.exe", "foo_bar.dmg", "foo.zip.bak"} {
		format, err := Detect(name)
		assert.Equal(t, FormatUnsupported, format, name)
		assert.Equal(t, KindUnsupportedFormat, KindOf(err), name)
	}

	_, err := Detect("setup.exe")
	assert.EqualError(t, err, "Unsupported format: exe")
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "TAR.GZ", FormatTarGz.String())
	assert.Equal(t, "7Z", FormatSevenZip.String())
	assert.Equal(t, "UNSUPPORTED", FormatUnsupported.String())

	assert.True(t, FormatTarXz.IsTar())
	assert.False(t, FormatXz.IsTar())
	assert.True(t, FormatBzip2.IsRawStream())
	assert.False(t, FormatZip.IsRawStream())
}
