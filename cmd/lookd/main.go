// lookd is the reduction service daemon: it serves the REST API, the
// websocket progress feed and the Prometheus metrics endpoint.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golook/internal/app"
	"golook/internal/config"
	"golook/internal/version"
)

func main() {
	configFile := flag.String("config", config.DefaultConfigFile, "path to the YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		info := version.Get()
		fmt.Printf("lookd %s (%s %s/%s)\n", info.Version, info.GoVersion, info.OS, info.Arch)
		return
	}

	cfg, err := config.LoadFrom(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	application, err := app.NewApplication(cfg)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}
