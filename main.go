package main

import (
	"context"
	"fmt"
	"os"

	"github.com/greencanopy/allometree/cmd"
	"github.com/greencanopy/allometree/internal/buildinfo"
	"github.com/greencanopy/allometree/internal/conf"
)

// Injected with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   string
	buildDate string
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		return 1
	}

	info := buildinfo.NewContext(version, buildDate)
	rootCmd := cmd.RootCommand(settings, info)
	defer cmd.Shutdown()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
