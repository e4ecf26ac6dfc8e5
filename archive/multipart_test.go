package archive

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveVolume(t *testing.T) {
	cases := []struct {
		path      string
		first     string
		format    Format
		multiPart bool
	}{
		{"game.zip", "game.zip", FormatZip, false},
		{"game.tar.gz", "game.tar.gz", FormatTarGz, false},
		{"game.rar", "game.rar", FormatRar, false},
		{"game.part1.rar", "game.part1.rar", FormatRar, true},
		{"game.part3.rar", "game.part1.rar", FormatRar, true},
		{"game.part07.rar", "game.part01.rar", FormatRar, true},
		{"game.PART2.RAR", "game.PART1.RAR", FormatRar, true},
		{"game.r00", "game.rar", FormatRar, true},
		{"GAME.R12", "GAME.RAR", FormatRar, true},
		{filepath.Join("dl", "game.part2.rar"), filepath.Join("dl", "game.part1.rar"), FormatRar, true},
	}

	for _, cas := range cases {
		vol, err := ResolveVolume(cas.path)
		if assert.NoError(t, err, cas.path) {
			assert.Equal(t, cas.first, vol.Path, cas.path)
			assert.Equal(t, cas.format, vol.Format, cas.path)
			assert.Equal(t, cas.multiPart, vol.MultiPart, cas.path)
		}
	}
}

func TestResolveVolumeRejectsSplitSets(t *testing.T) {
	for _, name := range []string{"game.7z.001", "game.7z.002", "game.zip.001", "game.part1.zip", "GAME.7Z.003"} {
		_, err := ResolveVolume(name)
		assert.Equal(t, KindUnsupportedFormat, KindOf(err), name)
		assert.Contains(t, err.Error(), "not supported", name)
	}
}

func TestResolveVolumeUnsupported(t *testing.T) {
	_, err := ResolveVolume("game.exe")
	assert.Equal(t, KindUnsupportedFormat, KindOf(err))
}
