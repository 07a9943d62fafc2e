package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"stockpulse/internal/analysis"
	"stockpulse/internal/config"
	"stockpulse/internal/database"
	"stockpulse/internal/guard"
	"stockpulse/internal/marketdata"
	"stockpulse/internal/monitor"
	"stockpulse/internal/scan"
	"stockpulse/internal/scheduler"
	"stockpulse/internal/universe"
	"stockpulse/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting StockPulse")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Market data plumbing
	data := marketdata.NewClient(log)
	provider := universe.NewProvider(log)

	// Scan pipeline
	conn := db.Conn()
	cacheRepo := scan.NewCacheRepository(conn, log)
	delistedRepo := scan.NewDelistedRepository(conn, log)
	scanRepo := scan.NewRepository(conn, log)
	screener := scan.NewScreener(data, cacheRepo, delistedRepo, log)
	orchestrator := scan.NewOrchestrator(
		provider, screener, delistedRepo, scanRepo,
		universe.MarketFilter(cfg.MarketFilter), cfg.ScanLimit, cfg.OutputDir, log,
	)

	// Threshold monitor
	recRepo := monitor.NewRecommendationRepository(conn, log)
	pushRepo := monitor.NewPushRepository(conn, log)
	notifier := monitor.NewLogNotifier(log)
	priceMonitor := monitor.New(recRepo, pushRepo, data, notifier, log)

	// Shared task guard, reused by the triggered analysis path
	taskGuard := guard.New(log)
	analyzer := analysis.NewService(screener, taskGuard, log)

	// One-shot commands bypass the scheduler
	if len(os.Args) > 1 {
		if err := runCommand(os.Args[1:], orchestrator, analyzer, log); err != nil {
			log.Fatal().Err(err).Msg("Command failed")
		}
		return
	}

	// Scheduler and jobs
	sched := scheduler.New(log)
	if err := registerJobs(sched, cfg, orchestrator, priceMonitor, taskGuard, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}
	sched.Start()
	defer sched.Stop()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
}

// runCommand handles the one-shot CLI forms:
//
//	server scan             run one market scan and exit
//	server analyze <text>   score the stock codes found in <text> and exit
func runCommand(args []string, orchestrator *scan.Orchestrator, analyzer *analysis.Service, log zerolog.Logger) error {
	ctx := context.Background()
	switch args[0] {
	case "scan":
		summary, err := orchestrator.Run(ctx)
		if err != nil {
			return err
		}
		log.Info().Str("run_id", summary.RunID).Int("strong", summary.Strong).
			Str("csv", summary.CSVPath).Msg("Scan finished")
		return nil
	case "analyze":
		if len(args) < 2 {
			return fmt.Errorf("usage: analyze <text containing stock codes>")
		}
		results, err := analyzer.AnalyzeText(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		for code, res := range results {
			log.Info().Str("code", code).Str("status", res.Status.String()).
				Msg("Analysis result")
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
