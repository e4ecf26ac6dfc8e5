package isoah

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/itchio/crowbar/archive"
	"github.com/kdomanski/iso9660"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeImage(t *testing.T, files map[string]string) string {
	t.Helper()

	w, err := iso9660.NewWriter()
	require.NoError(t, err)
	defer w.Cleanup()

	for name, contents := range files {
		require.NoError(t, w.AddFile(strings.NewReader(contents), name))
	}

	isoPath := filepath.Join(t.TempDir(), "image.iso")
	f, err := os.Create(isoPath)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, w.WriteTo(f, "CROWBAR"))
	return isoPath
}

func TestWalk(t *testing.T) {
	isoPath := makeImage(t, map[string]string{
		"test.txt":          "Hello, World!",
		"subdir/nested.txt": "Nested content",
	})

	var dirs, files []string
	contents := make(map[string]string)
	err := (&Handler{}).Walk(&archive.WalkParams{
		Path:   isoPath,
		Format: archive.FormatIso,
	}, func(entry *archive.RawEntry, open archive.OpenFunc) error {
		if entry.Kind == archive.EntryDir {
			assert.True(t, strings.HasSuffix(entry.Name, "/"))
			dirs = append(dirs, entry.Name)
			return nil
		}

		files = append(files, entry.Name)
		rc, err := open()
		if err != nil {
			return err
		}
		defer rc.Close()

		buf, err := io.ReadAll(rc)
		contents[strings.ToLower(entry.Name)] = string(buf)
		return err
	})
	require.NoError(t, err)

	assert.Len(t, dirs, 1)
	assert.Len(t, files, 2)

	// ISO 9660 level 1 names are upper case
	assert.Equal(t, "Hello, World!", contents["test.txt"])
	assert.Equal(t, "Nested content", contents["subdir/nested.txt"])
}

func TestExtractImage(t *testing.T) {
	Register()

	isoPath := makeImage(t, map[string]string{
		"test.txt":          "Hello, World!",
		"subdir/nested.txt": "Nested content",
	})

	stats, err := archive.Extract(&archive.ExtractParams{
		ArchivePath: isoPath,
		OutputDir:   t.TempDir(),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.FilesExtracted)
	assert.EqualValues(t, 27, stats.BytesWritten)
}

func TestWalkRejectsGarbage(t *testing.T) {
	isoPath := filepath.Join(t.TempDir(), "broken.iso")
	require.NoError(t, os.WriteFile(isoPath, []byte("not an image"), 0644))

	err := (&Handler{}).Walk(&archive.WalkParams{
		Path:   isoPath,
		Format: archive.FormatIso,
	}, func(entry *archive.RawEntry, open archive.OpenFunc) error {
		return nil
	})
	assert.Error(t, err)
}
