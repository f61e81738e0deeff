package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/claude/wodscribe/internal/config"
	"github.com/claude/wodscribe/internal/logging"
	"github.com/claude/wodscribe/internal/upload"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "wodscribe server URL (e.g. https://wodscribe.tail1234.ts.net)")
	notesPath := flag.String("path", "", "directory of workout notes")
	dryRun := flag.Bool("dry-run", false, "parse notes but don't send them to the server")
	concurrency := flag.Int("concurrency", 4, "uploads in flight at once")
	lexiconPath := flag.String("lexicon", "", "lexicon file (default is the built-in lexicon)")
	stateDir := flag.String("state", "", "state directory (default ~/.wodscribe-upload)")
	logLevel := flag.String("log-level", "info", "debug, info, warn, or error")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("wodscribe-upload", Version)
		return
	}

	log := logging.New(os.Stdout, config.LogConfig{Format: "text", Level: *logLevel})

	if *notesPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: wodscribe-upload -server <URL> -path <notes dir> [-dry-run] [-concurrency N]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}

	info, err := os.Stat(*notesPath)
	if err != nil || !info.IsDir() {
		log.Error("notes directory not found", "path", *notesPath)
		os.Exit(1)
	}

	parser, err := config.ParserConfig{LexiconPath: *lexiconPath}.NewParser()
	if err != nil {
		log.Error("failed to build parser", "error", err)
		os.Exit(1)
	}

	// Open state database
	dir := *stateDir
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Error("failed to get home directory", "error", err)
			os.Exit(1)
		}
		dir = filepath.Join(homeDir, ".wodscribe-upload")
	}
	state, err := upload.OpenState(dir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	if *dryRun {
		log.Info("DRY RUN mode: notes will be parsed but not sent")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	uploader := upload.New(upload.NewClient(*serverURL), state, parser, *notesPath, *dryRun, *concurrency, log)
	stats, err := uploader.Run(ctx)
	if err != nil {
		log.Error("upload failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("upload complete")
}

func printStats(log *slog.Logger, stats *upload.Stats) {
	fmt.Println()
	fmt.Println("=== Upload Summary ===")
	fmt.Printf("  Files total:      %d\n", stats.FilesTotal)
	fmt.Printf("  Files uploaded:   %d\n", stats.FilesUploaded)
	fmt.Printf("  Files skipped:    %d (already uploaded)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:    %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Workouts created:    %d\n", stats.WorkoutsCreated)
	fmt.Printf("  Workouts duplicated: %d\n", stats.WorkoutsDuplicated)
	fmt.Printf("  Low confidence:      %d\n", stats.LowConfidence)
	if stats.StateForgotten > 0 {
		fmt.Printf("  Forgotten notes:     %d (no longer on disk)\n", stats.StateForgotten)
	}
	fmt.Println()
	log.Debug("upload stats", "summary", stats.String())
}
