package main

import (
	"os"

	"github.com/jimezsa/usajobsfn/internal/cmd"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	build := cmd.BuildInfo{Version: version, Commit: commit, Date: date}.Resolve()
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, build))
}
