// Command chitin is a fast native launcher for the OpenClaw CLI.
package main

import (
	"os"

	"github.com/peakxl/chitin/internal/cli"
)

// version is injected at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(cli.Main(version, os.Args[1:]))
}
