// Package config reads persisted extraction defaults from a TOML file.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	humanize "github.com/dustin/go-humanize"
	"github.com/go-errors/errors"
	"github.com/itchio/crowbar/archive"
	"github.com/mitchellh/mapstructure"
)

// NoLimit disables the size limit when used as size_limit
const NoLimit = "none"

const maxJobs = 64

// Settings mirrors config.toml. Every key is optional.
type Settings struct {
	Overwrite       string `mapstructure:"overwrite" toml:"overwrite"`
	SizeLimit       string `mapstructure:"size_limit" toml:"size_limit"`
	StripComponents uint32 `mapstructure:"strip_components" toml:"strip_components"`
	AllowSymlinks   bool   `mapstructure:"allow_symlinks" toml:"allow_symlinks"`
	AllowHardlinks  bool   `mapstructure:"allow_hardlinks" toml:"allow_hardlinks"`
	Jobs            int    `mapstructure:"jobs" toml:"jobs"`
}

// Default returns the settings used when there is no config file
func Default() *Settings {
	return &Settings{
		Overwrite: archive.OverwriteRename.String(),
		SizeLimit: humanize.IBytes(archive.DefaultSizeLimit),
		Jobs:      2,
	}
}

// DefaultPath is crowbar/config.toml under the user's configuration
// directory, $XDG_CONFIG_HOME on Linux.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "crowbar", "config.toml")
}

// Load reads settings from path, on top of the defaults. A missing file
// is not an error. Returns an error if the file can't be read, isn't valid
// TOML, has unknown keys or invalid values.
func Load(path string) (*Settings, error) {
	settings := Default()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, errors.Wrap(err, 0)
	}
	defer f.Close()

	intermediate := make(map[string]interface{})
	_, err = toml.NewDecoder(f).Decode(&intermediate)
	if err != nil {
		// invalid TOML
		return nil, errors.WrapPrefix(err, path, 0)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: settings,
		// size_limit may be written as a plain number of bytes
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		// internal error
		return nil, errors.Wrap(err, 0)
	}

	err = decoder.Decode(intermediate)
	if err != nil {
		// invalid structure
		return nil, errors.WrapPrefix(err, path, 0)
	}

	err = settings.Validate()
	if err != nil {
		return nil, errors.WrapPrefix(err, path, 0)
	}

	return settings, nil
}

// Validate checks values that the TOML types can't constrain
func (s *Settings) Validate() error {
	if _, err := archive.ParseOverwriteMode(s.Overwrite); err != nil {
		return errors.Wrap(err, 0)
	}
	if _, err := ParseSizeLimit(s.SizeLimit); err != nil {
		return errors.Wrap(err, 0)
	}
	if s.Jobs < 1 || s.Jobs > maxJobs {
		return errors.Errorf("jobs must be between 1 and %d, got %d", maxJobs, s.Jobs)
	}
	return nil
}

// ExtractOptions turns settings into engine options
func (s *Settings) ExtractOptions() (*archive.ExtractOptions, error) {
	mode, err := archive.ParseOverwriteMode(s.Overwrite)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	limit, err := ParseSizeLimit(s.SizeLimit)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	opts := archive.DefaultExtractOptions()
	opts.Overwrite = mode
	opts.SizeLimit = limit
	opts.StripComponents = s.StripComponents
	opts.AllowSymlinks = s.AllowSymlinks
	opts.AllowHardlinks = s.AllowHardlinks
	return opts, nil
}

// ParseSizeLimit accepts human sizes such as "20GiB" or "500 MB", a plain
// number of bytes, or "none". The empty string means the default limit.
func ParseSizeLimit(s string) (*uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		limit := uint64(archive.DefaultSizeLimit)
		return &limit, nil
	}
	if strings.EqualFold(s, NoLimit) {
		return nil, nil
	}

	limit, err := humanize.ParseBytes(s)
	if err != nil {
		return nil, errors.Errorf("invalid size limit %q: %s", s, err.Error())
	}
	return &limit, nil
}

// Write prints settings as TOML
func (s *Settings) Write(w io.Writer) error {
	err := toml.NewEncoder(w).Encode(s)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	return nil
}
