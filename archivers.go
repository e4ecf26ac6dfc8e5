package main

import (
	"github.com/itchio/crowbar/archive/backends/isoah"
	"github.com/itchio/crowbar/archive/backends/rarah"
	"github.com/itchio/crowbar/archive/backends/rawah"
	"github.com/itchio/crowbar/archive/backends/szah"
	"github.com/itchio/crowbar/archive/backends/tarah"
	"github.com/itchio/crowbar/archive/backends/zipah"
)

func registerArchivers() {
	zipah.Register()
	tarah.Register()
	rawah.Register()
	szah.Register()
	rarah.Register()
	isoah.Register()
}
