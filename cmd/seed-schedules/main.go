package main

import (
	"context"
	"log"

	"github.com/vkataja/quest-board-api/internal/models"
	"github.com/vkataja/quest-board-api/internal/repository"
	"github.com/vkataja/quest-board-api/pkg/config"
	"github.com/vkataja/quest-board-api/pkg/database"
	"github.com/vkataja/quest-board-api/pkg/logger"
)

// Seeds the schedule table with a typical Finnish comprehensive school week.
// Safe to re-run: rows upsert by subject.
var seedSchedules = []models.SubjectSchedule{
	{Subject: "Math", ClassDays: []string{"Tuesday", "Friday"}, DefaultDueInterval: 7},
	{Subject: "Finnish", ClassDays: []string{"Monday", "Wednesday"}, DefaultDueInterval: 7},
	{Subject: "English", ClassDays: []string{"Monday", "Thursday"}, DefaultDueInterval: 7},
	{Subject: "History", ClassDays: []string{"Wednesday"}, DefaultDueInterval: 7},
	{Subject: "Biology", ClassDays: []string{"Thursday"}, DefaultDueInterval: 7},
	{Subject: "Physics", ClassDays: []string{"Tuesday"}, DefaultDueInterval: 7},
	{Subject: "Chemistry", ClassDays: []string{"Friday"}, DefaultDueInterval: 7},
	{Subject: "PE", ClassDays: []string{"Monday", "Friday"}, DefaultDueInterval: 7},
	{Subject: "Music", ClassDays: []string{"Wednesday"}, DefaultDueInterval: 14},
	{Subject: "Art", ClassDays: []string{"Thursday"}, DefaultDueInterval: 14},
}

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

	repo := repository.NewScheduleRepository(db)
	ctx := context.Background()

	for i := range seedSchedules {
		if err := repo.Upsert(ctx, &seedSchedules[i]); err != nil {
			logr.Sugar().Fatalw("failed to seed schedule", "subject", seedSchedules[i].Subject, "error", err)
		}
	}
	logr.Sugar().Infow("schedules seeded", "count", len(seedSchedules))
}
