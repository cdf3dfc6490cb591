package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/your-org/exec-duration/internal/app"
	"github.com/your-org/exec-duration/internal/config"
	"github.com/your-org/exec-duration/internal/version"
	"github.com/your-org/exec-duration/pkg/execdur"
	"github.com/your-org/exec-duration/pkg/report"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	command := os.Args[1]
	if command == "-v" || command == "--version" || command == "version" {
		fmt.Println(version.String(report.SerializationEnabled))
		return
	}
	path := os.Getenv("EXECDUR_CONFIG")
	if len(os.Args) > 2 {
		path = os.Args[2]
	}

	switch command {
	case "run":
		cfg, err := app.LoadConfig(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "execdur run failed: %v\n", err)
			os.Exit(1)
		}
		level, _ := config.ParseLogLevel(cfg.LogLevel)
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		execdur.SetLogger(logger)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := app.Run(ctx, path, os.Stdout, logger); err != nil {
			logger.Error("run failed", "config", path, "error", err)
			stop()
			os.Exit(1)
		}
	case "validate":
		if err := app.ValidateConfig(path); err != nil {
			fmt.Fprintf(os.Stderr, "execdur validate failed: %v\n", err)
			os.Exit(1)
		}
		if path == "" {
			path = "(defaults)"
		}
		fmt.Printf("config is valid: %s\n", path)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: execdur <run|validate|version> [config.yaml]")
}
