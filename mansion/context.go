package mansion

import (
	"github.com/itchio/crowbar/comm"
	"github.com/itchio/crowbar/config"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

type DoCommand func(ctx *Context)

type Context struct {
	App      *kingpin.Application
	Commands map[string]DoCommand

	// VersionString is the complete version string
	VersionString string

	// Version is just the version number, as a string
	Version string

	// The git commit hash
	Commit string

	// Quiet silences all output
	Quiet bool

	// Verbose enables chatty output
	Verbose bool

	// JSON enables JSON-lines output
	JSON bool

	// NoProgress hides progress bars
	NoProgress bool

	// ConfigPath is where settings are read from
	ConfigPath string

	settings *config.Settings
}

func NewContext(app *kingpin.Application) *Context {
	return &Context{
		App:      app,
		Commands: make(map[string]DoCommand),
	}
}

func (ctx *Context) Register(clause *kingpin.CmdClause, do DoCommand) {
	ctx.Commands[clause.FullCommand()] = do
}

func (ctx *Context) Must(err error) {
	if err != nil {
		if ctx.Verbose || ctx.JSON {
			comm.Dief("%+v", err)
		} else {
			comm.Dief("%s", err)
		}
	}
}

// Settings loads the config file on first use. Command-line flags are
// applied on top by each command.
func (ctx *Context) Settings() *config.Settings {
	if ctx.settings == nil {
		path := ctx.ConfigPath
		if path == "" {
			path = config.DefaultPath()
		}
		settings, err := config.Load(path)
		ctx.Must(err)
		comm.Debugf("Loaded settings from %s", path)
		ctx.settings = settings
	}
	return ctx.settings
}
