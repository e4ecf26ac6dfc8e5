package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("original"), 0644))
}

func TestResolveOverwriteFreeTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "test.txt")

	for _, mode := range []OverwriteMode{OverwriteRename, OverwriteReplace, OverwriteSkip} {
		res, err := ResolveOverwrite(target, mode)
		assert.NoError(t, err)
		assert.Equal(t, target, res, mode.String())
	}
}

func TestResolveOverwriteExisting(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "test.txt")
	touch(t, target)

	res, err := ResolveOverwrite(target, OverwriteReplace)
	assert.NoError(t, err)
	assert.Equal(t, target, res)

	res, err = ResolveOverwrite(target, OverwriteSkip)
	assert.NoError(t, err)
	assert.Equal(t, target, res)

	res, err = ResolveOverwrite(target, OverwriteRename)
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "test (1).txt"), res)

	touch(t, res)
	res, err = ResolveOverwrite(target, OverwriteRename)
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "test (2).txt"), res)
}

func TestResolveOverwriteNames(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		name, result string
	}{
		{"README", "README (1)"},
		{".bashrc", ".bashrc (1)"},
		{"game.tar.gz", "game.tar (1).gz"},
	}

	for _, cas := range cases {
		target := filepath.Join(dir, cas.name)
		touch(t, target)

		res, err := ResolveOverwrite(target, OverwriteRename)
		assert.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, cas.result), res)
	}
}

func TestResolveOverwriteGivesUp(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "f.txt")
	touch(t, target)
	for n := 1; n <= maxRenameAttempts; n++ {
		touch(t, filepath.Join(dir, fmt.Sprintf("f (%d).txt", n)))
	}

	_, err := ResolveOverwrite(target, OverwriteRename)
	assert.Error(t, err)
	assert.Equal(t, KindIo, KindOf(err))
	assert.True(t, IsExist(err))
}

func TestParseOverwriteMode(t *testing.T) {
	for s, mode := range map[string]OverwriteMode{
		"replace": OverwriteReplace,
		"SKIP":    OverwriteSkip,
		"rename":  OverwriteRename,
		"":        OverwriteRename,
	} {
		res, err := ParseOverwriteMode(s)
		assert.NoError(t, err)
		assert.Equal(t, mode, res)
	}

	_, err := ParseOverwriteMode("clobber")
	assert.Error(t, err)
}
