package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/itchio/crowbar/buildinfo"
	"github.com/itchio/crowbar/comm"
	"github.com/itchio/crowbar/mansion"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

var (
	app = kingpin.New("crowbar", "Safely pry archives open")
)

var appArgs = struct {
	json       *bool
	quiet      *bool
	verbose    *bool
	timestamps *bool
	noProgress *bool
	panic      *bool
	config     *string
}{
	app.Flag("json", "Enable machine-readable JSON-lines output").Short('j').Bool(),
	app.Flag("quiet", "Hide progress indicators & other extra info").Short('q').Bool(),
	app.Flag("verbose", "Display as much extra info as possible").Short('v').Bool(),
	app.Flag("timestamps", "Prefix all output by timestamps (for logging purposes)").Bool(),
	app.Flag("no-progress", "Doesn't show progress bars").Bool(),
	app.Flag("panic", "Panic on fatal errors, to get a stack trace").Hidden().Bool(),
	app.Flag("config", "Path of the settings file").PlaceHolder("PATH").String(),
}

func main() {
	app.HelpFlag.Short('h')
	app.Version(buildinfo.VersionString)
	app.VersionFlag.Short('V')
	app.Author("itch.io")

	ctx := mansion.NewContext(app)
	registerCommands(ctx)
	registerArchivers()

	cmd, err := app.Parse(os.Args[1:])
	if *appArgs.timestamps {
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	} else {
		log.SetFlags(0)
	}

	if *appArgs.quiet {
		*appArgs.noProgress = true
	}

	ctx.Version = buildinfo.Version
	ctx.VersionString = buildinfo.VersionString
	ctx.Commit = buildinfo.Commit
	ctx.Quiet = *appArgs.quiet
	ctx.Verbose = *appArgs.verbose
	ctx.JSON = *appArgs.json
	ctx.NoProgress = *appArgs.noProgress
	ctx.ConfigPath = *appArgs.config

	comm.Configure(*appArgs.noProgress, *appArgs.quiet, *appArgs.verbose, *appArgs.json, *appArgs.panic)

	level := slog.LevelInfo
	if *appArgs.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(comm.NewSlogHandler(level)))

	ctx.Must(err)

	if do, ok := ctx.Commands[cmd]; ok {
		do(ctx)
	} else {
		comm.Dief("Unknown command: %s", cmd)
	}
}
