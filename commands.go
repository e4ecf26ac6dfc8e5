package main

import (
	"github.com/itchio/crowbar/cmd/configcmd"
	"github.com/itchio/crowbar/cmd/extract"
	"github.com/itchio/crowbar/cmd/probe"
	"github.com/itchio/crowbar/cmd/version"
	"github.com/itchio/crowbar/mansion"
)

// Each of these specify their own arguments and flags in
// their own package.
func registerCommands(ctx *mansion.Context) {
	extract.Register(ctx)
	probe.Register(ctx)
	configcmd.Register(ctx)
	version.Register(ctx)
}
