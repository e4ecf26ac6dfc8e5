package configcmd

import (
	"os"
	"path/filepath"

	"github.com/itchio/crowbar/comm"
	"github.com/itchio/crowbar/config"
	"github.com/itchio/crowbar/mansion"
	"github.com/pkg/errors"
)

var args = struct {
	show *bool
	init *bool
}{}

func Register(ctx *mansion.Context) {
	cmd := ctx.App.Command("config", "Show where settings are read from, and their effective values")
	args.show = cmd.Flag("show", "Print the effective settings as TOML").Bool()
	args.init = cmd.Flag("init", "Write the default settings to the config file if it doesn't exist yet").Bool()
	ctx.Register(cmd, do)
}

func do(ctx *mansion.Context) {
	path := ctx.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}

	if *args.init {
		ctx.Must(Init(path))
	}
	ctx.Must(Do(path, ctx.Settings(), *args.show))
}

// Do reports the config path and, when asked, the settings in effect
func Do(path string, settings *config.Settings, show bool) error {
	_, err := os.Stat(path)
	exists := err == nil

	var printErr error
	comm.ResultOrPrint(&mansion.ConfigResult{
		Path:     path,
		Exists:   exists,
		Settings: settings,
	}, func() {
		if exists {
			comm.Logf("Config file: %s", path)
		} else {
			comm.Logf("Config file: %s (not found, using defaults)", path)
		}
		if show {
			printErr = settings.Write(os.Stdout)
		}
	})
	return printErr
}

// Init writes the default settings to path, never overwriting a file
func Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		comm.Logf("%s already exists, leaving it alone", path)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "creating config file")
	}
	defer f.Close()

	if err := config.Default().Write(f); err != nil {
		return err
	}
	comm.Opf("Wrote default settings to %s", path)
	return nil
}
