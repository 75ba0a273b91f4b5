package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/echemtools/cellcycle-go/cmd"
	"github.com/echemtools/cellcycle-go/internal/conf"
	"github.com/echemtools/cellcycle-go/internal/logging"
)

var version = "dev"

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}
	settings.Version = version

	logging.Init()
	if settings.Debug {
		logging.SetLevel(slog.LevelDebug)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		logging.Fatal("command failed", "error", err)
	}
}
