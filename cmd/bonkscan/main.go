package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bonktools/bonkscan/internal/catalog"
	"github.com/bonktools/bonkscan/internal/imaging"
	"github.com/bonktools/bonkscan/internal/match"
	"github.com/bonktools/bonkscan/internal/pipeline"
	"github.com/bonktools/bonkscan/internal/strategy"
	"github.com/bonktools/bonkscan/internal/templates"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and --help before flag parsing
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("bonkscan %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage()
			return
		}
	}

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "bonkscan: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("bonkscan - detect inventory items in game screenshots")
	fmt.Println()
	fmt.Println("Usage: bonkscan -catalog <file> -image <file> [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -catalog <file>     Item catalog JSON (required)")
	fmt.Println("  -image <file>       Screenshot to scan: file path or base64 data URL (required)")
	fmt.Println("  -strategy <name>    Detection strategy (default \"default\")")
	fmt.Println("  -strategies <file>  Extra strategy definitions (YAML)")
	fmt.Println("  -feedback <file>    Per-item confidence penalties (JSON)")
	fmt.Println("  -overlay <file>     Write a grid-overlay PNG for debugging")
	fmt.Println("  -timeout <dur>      Abort the run after this long (default 2m)")
	fmt.Println("  --version, -v       Print version information")
	fmt.Println("  --help, -h          Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  BONKSCAN_LOG_LEVEL=debug    Enable debug logging")
	fmt.Println()
	fmt.Println("Results are written to stdout as JSON; logs go to stderr.")
}

func run(args []string) error {
	fs := flag.NewFlagSet("bonkscan", flag.ExitOnError)
	catalogPath := fs.String("catalog", "", "item catalog JSON")
	imagePath := fs.String("image", "", "screenshot to scan")
	strategyName := fs.String("strategy", "default", "detection strategy")
	strategiesPath := fs.String("strategies", "", "extra strategy definitions (YAML)")
	feedbackPath := fs.String("feedback", "", "per-item confidence penalties (JSON)")
	overlayPath := fs.String("overlay", "", "grid-overlay PNG output")
	timeout := fs.Duration("timeout", 2*time.Minute, "run timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *catalogPath == "" || *imagePath == "" {
		return fmt.Errorf("both -catalog and -image are required (see --help)")
	}

	logger := newLogger()
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cat, err := catalog.Load(*catalogPath)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded", "items", len(cat.Items))

	store := templates.NewStore(logger)
	detector := pipeline.New(store, logger)
	progress := func(percent int, status string) {
		logger.Debug("progress", "percent", percent, "status", status)
	}
	if err := detector.LoadTemplates(ctx, cat, progress); err != nil {
		return err
	}
	logger.Info("templates loaded", "count", store.Len())

	registry := strategy.NewRegistry()
	if *strategiesPath != "" {
		if err := registry.LoadFile(*strategiesPath); err != nil {
			return err
		}
	}
	strat, err := registry.Get(*strategyName)
	if err != nil {
		return err
	}

	var fb match.Feedback = match.NoFeedback{}
	if *feedbackPath != "" {
		fb, err = loadFeedback(*feedbackPath)
		if err != nil {
			return err
		}
	}

	img, err := decodeScreenshot(*imagePath)
	if err != nil {
		return err
	}

	result, err := detector.Run(ctx, img, strat, fb, progress)
	if err != nil {
		return err
	}

	if *overlayPath != "" {
		if err := writeOverlay(img, *overlayPath, result); err != nil {
			return err
		}
		logger.Info("overlay written", "path", *overlayPath)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// newLogger configures structured logging to stderr; stdout carries only
// the JSON result.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("BONKSCAN_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadFeedback(path string) (match.StaticFeedback, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feedback file: %w", err)
	}
	var fb match.StaticFeedback
	if err := json.Unmarshal(data, &fb); err != nil {
		return nil, fmt.Errorf("parsing feedback file %s: %w", path, err)
	}
	return fb, nil
}

// decodeScreenshot accepts either a file path or a base64 data URL.
func decodeScreenshot(arg string) (image.Image, error) {
	if strings.HasPrefix(arg, "data:") {
		return imaging.DecodeDataURL(arg)
	}
	return imaging.DecodeFile(arg)
}

// writeOverlay draws the inferred grid cells onto the screenshot.
func writeOverlay(img image.Image, overlayPath string, result *pipeline.Result) error {
	overlay := imaging.DrawROIs(img, result.Layout.Cells, color.RGBA{255, 0, 0, 255})

	f, err := os.Create(overlayPath)
	if err != nil {
		return fmt.Errorf("creating overlay file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, overlay); err != nil {
		return fmt.Errorf("encoding overlay: %w", err)
	}
	return nil
}
