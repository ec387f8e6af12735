package main

import (
	"os"

	"github.com/nerdneilsfield/go-doctex/internal/cli"
)

// Version information, set at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	if err := cli.Execute(Version, Commit, BuildDate); err != nil {
		os.Exit(1)
	}
}
