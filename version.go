package main

import (
	"fmt"
	"io"
	"runtime"
)

// Build-time variables injected via linker flags:
//
//	go build -ldflags "-X main.Version=$(git describe --tags)" -o redscript
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "redscript %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
	if Commit != "unknown" {
		fmt.Fprintf(w, "  commit: %s\n", Commit)
	}
	if BuildDate != "unknown" {
		fmt.Fprintf(w, "  built:  %s\n", BuildDate)
	}
}
