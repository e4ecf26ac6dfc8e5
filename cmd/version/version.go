package version

import (
	"log"
	"time"

	"github.com/itchio/crowbar/archive"
	"github.com/itchio/crowbar/buildinfo"
	"github.com/itchio/crowbar/comm"
	"github.com/itchio/crowbar/mansion"
)

func Register(ctx *mansion.Context) {
	cmd := ctx.App.Command("version", "Prints the current version of crowbar")
	ctx.Register(cmd, do)
}

type VersionData struct {
	Version       string     `json:"version"`
	BuiltAt       *time.Time `json:"builtAt"`
	Commit        string     `json:"commit"`
	VersionString string     `json:"versionString"`
	Backends      []string   `json:"backends"`
}

func do(ctx *mansion.Context) {
	if ctx.JSON {
		comm.Result(VersionData{
			Version:       buildinfo.Version,
			BuiltAt:       buildinfo.BuildTime(),
			Commit:        buildinfo.Commit,
			VersionString: buildinfo.VersionString,
			Backends:      archive.Handlers(),
		})
	} else {
		log.Println(buildinfo.VersionString)
	}
}
