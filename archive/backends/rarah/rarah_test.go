package rarah

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/itchio/crowbar/archive"
	"github.com/stretchr/testify/assert"
)

func TestTranslateError(t *testing.T) {
	incorrect := errors.New("rardecode: incorrect password")
	checksum := errors.New("rardecode: bad file checksum")
	other := errors.New("rardecode: invalid file block")

	assert.ErrorIs(t, translateError(incorrect, false), archive.ErrPassword)
	assert.ErrorIs(t, translateError(incorrect, true), archive.ErrPassword)

	// without a password, a checksum mismatch is plain corruption
	assert.NotErrorIs(t, translateError(checksum, false), archive.ErrPassword)
	assert.ErrorIs(t, translateError(checksum, true), archive.ErrPassword)

	assert.NotErrorIs(t, translateError(other, true), archive.ErrPassword)
}

func TestWalkRejectsGarbage(t *testing.T) {
	rarPath := filepath.Join(t.TempDir(), "broken.rar")
	assert.NoError(t, os.WriteFile(rarPath, []byte("definitely not a rar archive"), 0644))

	err := (&Handler{}).Walk(&archive.WalkParams{
		Path:   rarPath,
		Format: archive.FormatRar,
	}, func(entry *archive.RawEntry, open archive.OpenFunc) error {
		return nil
	})
	assert.Error(t, err)
}
