package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/claude/wodscribe/internal/config"
	"github.com/claude/wodscribe/internal/importer"
	"github.com/claude/wodscribe/internal/logging"
	"github.com/claude/wodscribe/internal/storage"
)

type options struct {
	configPath    string
	notesPath     string
	migrationsDir string
	dryRun        bool
	concurrency   int
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "config.yaml", "path to config file")
	flag.StringVar(&opts.notesPath, "path", "", "directory of workout notes and Alpha Progression exports (required)")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "parse and report counts without writing to the database")
	flag.IntVar(&opts.concurrency, "concurrency", 4, "files processed at once")
	flag.StringVar(&opts.migrationsDir, "migrations", "", "migrations directory (default: migrations built into the binary)")
	flag.Parse()

	if opts.notesPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: wodscribe-import -config config.yaml -path /path/to/notes [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stats, err := run(ctx, cfg, opts, log)
	if stats != nil {
		log.Info("import stats",
			"files_processed", stats.FilesProcessed,
			"files_errored", stats.FilesErrored,
			"workouts_inserted", stats.WorkoutsInserted,
			"workouts_duplicated", stats.WorkoutsDuplicated,
			"workouts_rejected", stats.WorkoutsRejected,
			"low_confidence", stats.LowConfidence,
		)
	}
	if err != nil {
		log.Error("import failed", "error", err)
		stop()
		os.Exit(1)
	}
	log.Info("import complete")
}

func run(ctx context.Context, cfg *config.Config, opts options, log *slog.Logger) (*importer.Stats, error) {
	if info, err := os.Stat(opts.notesPath); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", opts.notesPath)
	}

	parser, err := cfg.Parser.NewParser()
	if err != nil {
		return nil, fmt.Errorf("building parser: %w", err)
	}

	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, opts.migrationsDir); err != nil {
		return nil, err
	}
	db, err := storage.New(ctx, dsn, storage.WithMaxConns(cfg.Database.MaxConns))
	if err != nil {
		return nil, fmt.Errorf("connecting database: %w", err)
	}
	defer db.Close()

	if opts.dryRun {
		log.Info("dry run: nothing will be written to the database")
	}
	return importer.New(db, parser, log, opts.dryRun, opts.concurrency).Import(ctx, opts.notesPath)
}
