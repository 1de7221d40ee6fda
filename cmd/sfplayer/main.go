package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/zurustar/sfplayer/pkg/app"
)

// Banks placed in soundfonts/ at build time are bundled into the binary and
// used when no bank directory is found next to the executable.
//
//go:embed soundfonts
var embeddedBanks embed.FS

func main() {
	application := app.New(embeddedBanks)
	if err := application.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
