package codecs

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/itchio/crowbar/archive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	assert.Equal(t, None, For(archive.FormatTar))
	assert.Equal(t, Gzip, For(archive.FormatTarGz))
	assert.Equal(t, Gzip, For(archive.FormatGzip))
	assert.Equal(t, Bzip2, For(archive.FormatTarBz2))
	assert.Equal(t, Xz, For(archive.FormatXz))
	assert.Equal(t, None, For(archive.FormatZip))
}

func TestRoundTrip(t *testing.T) {
	payload := strings.Repeat("crowbar pries archives open. ", 4096)

	for _, c := range []Compression{None, Gzip, Bzip2, Xz} {
		t.Run(c.String(), func(t *testing.T) {
			buf := new(bytes.Buffer)
			w, err := NewWriter(c, buf)
			require.NoError(t, err)
			_, err = io.WriteString(w, payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			if c != None {
				assert.Less(t, buf.Len(), len(payload))
			}

			r, err := NewReader(c, buf)
			require.NoError(t, err)
			defer r.Close()

			res, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, payload, string(res))
		})
	}
}

func TestReaderRejectsGarbage(t *testing.T) {
	for _, c := range []Compression{Gzip, Xz} {
		_, err := NewReader(c, strings.NewReader("this is not compressed"))
		assert.Error(t, err, c.String())
	}
}
