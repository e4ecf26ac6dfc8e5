package configcmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/itchio/crowbar/comm"
	"github.com/itchio/crowbar/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	comm.Configure(true, true, false, false, false)
}

func TestInitWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crowbar", "config.toml")

	require.NoError(t, Init(path))

	settings, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), settings)
}

func TestInitKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("jobs = 8\n"), 0644))

	require.NoError(t, Init(path))

	settings, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, settings.Jobs)
}

func TestDoMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	assert.NoError(t, Do(path, config.Default(), false))
}
