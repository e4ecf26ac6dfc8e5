package archive_test

import (
	"archive/tar"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alexmullins/zip"
	"github.com/itchio/crowbar/archive"
	"github.com/itchio/crowbar/archive/backends/codecs"
	"github.com/itchio/crowbar/archive/backends/rawah"
	"github.com/itchio/crowbar/archive/backends/szah"
	"github.com/itchio/crowbar/archive/backends/tarah"
	"github.com/itchio/crowbar/archive/backends/zipah"
	"github.com/stretchr/testify/require"
)

func init() {
	zipah.Register()
	tarah.Register()
	rawah.Register()
	szah.Register()
}

type fixtureEntry struct {
	name     string
	contents string
	dir      bool
	symlink  string
	hardlink string
}

// helloEntries holds 2 files, 27 bytes total
var helloEntries = []fixtureEntry{
	{name: "test.txt", contents: "Hello, World!"},
	{name: "subdir/", dir: true},
	{name: "subdir/nested.txt", contents: "Nested content"},
}

func writeZip(t *testing.T, path string, entries []fixtureEntry, password string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		switch {
		case e.symlink != "":
			fh := &zip.FileHeader{Name: e.name, Method: zip.Store}
			fh.SetMode(os.ModeSymlink | 0777)
			w, err := zw.CreateHeader(fh)
			require.NoError(t, err)
			_, err = w.Write([]byte(e.symlink))
			require.NoError(t, err)
		case e.dir:
			_, err := zw.Create(e.name)
			require.NoError(t, err)
		case password != "":
			w, err := zw.Encrypt(e.name, password)
			require.NoError(t, err)
			_, err = w.Write([]byte(e.contents))
			require.NoError(t, err)
		default:
			w, err := zw.Create(e.name)
			require.NoError(t, err)
			_, err = w.Write([]byte(e.contents))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
}

func writeTar(t *testing.T, path string, entries []fixtureEntry) {
	t.Helper()

	format, err := archive.Detect(path)
	require.NoError(t, err)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	cw, err := codecs.NewWriter(codecs.For(format), f)
	require.NoError(t, err)

	tw := tar.NewWriter(cw)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0644}
		switch {
		case e.dir:
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0755
		case e.symlink != "":
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.symlink
		case e.hardlink != "":
			hdr.Typeflag = tar.TypeLink
			hdr.Linkname = e.hardlink
		default:
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(e.contents))
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if hdr.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.contents))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, cw.Close())
}

func writeRaw(t *testing.T, path string, contents string) {
	t.Helper()

	format, err := archive.Detect(path)
	require.NoError(t, err)

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	cw, err := codecs.NewWriter(codecs.For(format), f)
	require.NoError(t, err)
	_, err = cw.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, cw.Close())
}

func readFile(t *testing.T, elem ...string) string {
	t.Helper()
	buf, err := os.ReadFile(filepath.Join(elem...))
	require.NoError(t, err)
	return string(buf)
}

func assertHelloTree(t *testing.T, dir string) {
	t.Helper()
	require.Equal(t, "Hello, World!", readFile(t, dir, "test.txt"))
	require.Equal(t, "Nested content", readFile(t, dir, "subdir", "nested.txt"))
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	var names []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel != "." {
			names = append(names, strings.ReplaceAll(rel, string(filepath.Separator), "/"))
		}
		return nil
	})
	require.NoError(t, err)
	return names
}
