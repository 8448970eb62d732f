// reduce runs a single reduction from the command line: one recording, one
// plan, exports written next to where you point it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golook/internal/config"
	"golook/internal/infrastructure"
	"golook/internal/reduction"
	"golook/internal/version"
)

func main() {
	recording := flag.String("recording", "", "path to the .look recording (required)")
	plan := flag.String("plan", "", "path to the reduction plan YAML (required)")
	outDir := flag.String("out", "exports", "output directory for exported files")
	formats := flag.String("formats", "csv", "comma-separated export formats (csv, xlsx)")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall reduction timeout")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		info := version.Get()
		fmt.Printf("reduce %s (%s %s/%s)\n", info.Version, info.GoVersion, info.OS, info.Arch)
		return
	}

	if *recording == "" || *plan == "" {
		fmt.Fprintln(os.Stderr, "both -recording and -plan are required")
		flag.Usage()
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(config.LoggingConfig{
		Level:  *logLevel,
		Output: "stdout",
	})
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}

	// The manager resolves bare filenames against configured directories, so
	// point those at wherever the inputs actually live.
	cfg := config.Default()
	cfg.Server.ReductionTimeout = *timeout
	cfg.Paths.RecordingsDir = filepath.Dir(*recording)
	cfg.Paths.PlansDir = filepath.Dir(*plan)
	cfg.Paths.ExportsDir = *outDir

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		logger.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	manager := reduction.NewManager(&cfg, nil, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	op, err := manager.Run(ctx, reduction.Request{
		Recording: filepath.Base(*recording),
		Plan:      filepath.Base(*plan),
		Formats:   strings.Split(*formats, ","),
	})
	if err != nil {
		logger.Error("reduction failed", "error", err)
		for _, step := range op.Steps {
			if step.Status == reduction.StepStatusFailed {
				logger.Error("failed step", "step", step.ID, "error", step.Error)
			}
		}
		os.Exit(1)
	}

	logger.Info("reduction complete",
		"experiment", op.Experiment,
		"samples", op.Samples,
		"exports", strings.Join(op.Exports, ", "))
	for _, name := range op.Exports {
		fmt.Println(filepath.Join(*outDir, name))
	}
}
