package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mizone/danmaku-insight/internal/app"
	"github.com/mizone/danmaku-insight/internal/platform/config"
	db "github.com/mizone/danmaku-insight/internal/storage"
	"github.com/mizone/danmaku-insight/internal/storage/sqlite"
)

type runOptions struct {
	episodeID int64
	level     string
	query     string
	hash      string
	from      float64
	to        float64
	window    float64
	limit     int
	threshold float64
	dryRun    bool
	inPath    string
	outPath   string
}

func main() {
	mode := flag.String("mode", "", "Operation mode (stats, analyze, popular, clusters, search, segment, user, cleanup, import, export)")
	episodeID := flag.Int64("episode", 0, "Episode id the operation runs against")
	level := flag.String("level", app.AnalysisComprehensive, "Analysis depth (basic, comprehensive, advanced)")
	query := flag.String("query", "", "Content substring for search mode")
	hash := flag.String("hash", "", "Sender hash for user mode")
	from := flag.Float64("from", 0, "Segment start offset in seconds")
	to := flag.Float64("to", 0, "Segment end offset in seconds")
	window := flag.Float64("window", 0, "Density window in seconds (0 uses the configured default)")
	limit := flag.Int("limit", 0, "Result limit (0 uses the configured default)")
	threshold := flag.Float64("threshold", 0, "Similarity threshold for cleanup mode (0 uses the configured default)")
	dryRun := flag.Bool("dry-run", false, "Report cleanup candidates without deleting them")
	in := flag.String("in", "", "XML document path for import mode")
	out := flag.String("out", "", "Output path for export mode (stdout when empty)")

	flag.Parse()

	if *mode == "" || *episodeID == 0 {
		log.Fatalf("Usage: %s --mode=[stats|analyze|popular|clusters|search|segment|user|cleanup|import|export] --episode=<id>", os.Args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer closeStore()

	application := app.New(cfg, store, &logger)

	// Start health server in background
	go func() {
		if err := application.StartHealthServer(ctx); err != nil {
			logger.Error().Err(err).Msg("health check server error")
		}
	}()

	opts := runOptions{
		episodeID: *episodeID,
		level:     *level,
		query:     *query,
		hash:      *hash,
		from:      *from,
		to:        *to,
		window:    *window,
		limit:     *limit,
		threshold: *threshold,
		dryRun:    *dryRun,
		inPath:    *in,
		outPath:   *out,
	}

	if err := runMode(ctx, application, *mode, opts); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// openStore builds the storage backend selected by DATABASE_DRIVER. The
// PostgreSQL backend runs its pending migrations before use; the SQLite
// backend applies its schema on open.
func openStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (app.Store, func(), error) {
	if cfg.DatabaseDriver == config.DriverSQLite {
		store, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}

		return store, store.Close, nil
	}

	poolOpts := db.PoolOptions{
		MaxConns:          cfg.DBMaxConnections,
		MinConns:          cfg.DBMinConnections,
		MaxConnIdleTime:   cfg.DBMaxConnIdleTime,
		MaxConnLifetime:   cfg.DBMaxConnLifetime,
		HealthCheckPeriod: cfg.DBHealthCheckPeriod,
	}

	database, err := db.NewWithOptions(ctx, cfg.PostgresDSN, poolOpts, logger)
	if err != nil {
		return nil, nil, err
	}

	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, nil, err
	}

	return database, database.Close, nil
}

func runMode(ctx context.Context, application *app.App, mode string, opts runOptions) error {
	switch mode {
	case "stats":
		return application.RunStats(ctx, opts.episodeID)
	case "analyze":
		return application.RunAnalyze(ctx, opts.episodeID, opts.level)
	case "popular":
		return application.RunPopular(ctx, opts.episodeID, opts.window, opts.limit)
	case "clusters":
		return application.RunClusters(ctx, opts.episodeID, opts.window, opts.limit)
	case "search":
		return application.RunSearch(ctx, opts.episodeID, opts.query, opts.limit)
	case "segment":
		return application.RunSegment(ctx, opts.episodeID, opts.from, opts.to)
	case "user":
		return application.RunUser(ctx, opts.episodeID, opts.hash)
	case "cleanup":
		return application.RunCleanup(ctx, opts.episodeID, opts.threshold, opts.dryRun)
	case "import":
		return application.RunImport(ctx, opts.episodeID, opts.inPath)
	case "export":
		return application.RunExport(ctx, opts.episodeID, opts.outPath)
	default:
		log.Fatalf("Usage: %s --mode=[stats|analyze|popular|clusters|search|segment|user|cleanup|import|export] --episode=<id>", os.Args[0])

		return nil
	}
}
