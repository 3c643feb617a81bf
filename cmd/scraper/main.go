package main

import (
	"context"
	"log"
	"time"

	"github.com/vkataja/quest-board-api/internal/repository"
	"github.com/vkataja/quest-board-api/internal/scraper"
	"github.com/vkataja/quest-board-api/internal/service"
	"github.com/vkataja/quest-board-api/pkg/config"
	"github.com/vkataja/quest-board-api/pkg/database"
	"github.com/vkataja/quest-board-api/pkg/logger"
	"github.com/vkataja/quest-board-api/pkg/storage"
)

// One-shot scrape-and-sync run, meant for cron. Exits non-zero only on setup
// failures; individual row failures are counted in the summary.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	tz, err := time.LoadLocation(cfg.Board.Timezone)
	if err != nil {
		tz = time.Local
	}

	session, err := storage.NewLocalStorage(cfg.Portal.SessionDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare session storage", "error", err)
	}

	questRepo := repository.NewQuestRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	scheduleSvc := service.NewScheduleService(scheduleRepo, nil, nil, logr, service.ScheduleServiceConfig{
		DefaultDueInterval: cfg.Board.DefaultDueInterval,
		HorizonDays:        cfg.Board.HorizonDays,
		Timezone:           tz,
	})
	metricsSvc := service.NewMetricsService()
	scheduleSvc.SetMetrics(metricsSvc)

	ingestSvc := service.NewIngestService(questRepo, scheduleSvc, logr, service.IngestConfig{
		Workers:    cfg.Ingest.Workers,
		MaxRetries: cfg.Ingest.MaxRetries,
		RetryDelay: cfg.Ingest.RetryDelay,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client := scraper.NewPortalClient(cfg.Portal, session, logr)
	defer client.Close() //nolint:errcheck

	raw, err := client.Fetch(ctx)
	if err != nil {
		logr.Sugar().Fatalw("portal fetch failed", "error", err)
	}

	tasks := scraper.NormalizeTasks(raw)
	summary, err := ingestSvc.Sync(ctx, tasks)
	if err != nil {
		logr.Sugar().Fatalw("sync failed", "error", err)
	}
	metricsSvc.ObserveSync(*summary)

	logr.Sugar().Infow("scrape-sync complete",
		"scraped", len(raw),
		"normalized", len(tasks),
		"inserted", summary.Inserted,
		"duplicates", summary.Duplicates,
		"failed", summary.Failed,
	)
}
