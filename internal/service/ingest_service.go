package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vkataja/quest-board-api/internal/models"
	"github.com/vkataja/quest-board-api/pkg/jobs"
)

// SyncSummary reports the outcome of one scrape-sync run.
type SyncSummary struct {
	Total      int `json:"total"`
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// IngestConfig bounds the sync worker pool.
type IngestConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// IngestService writes scraped portal tasks into the quest store. Each task
// is an existence check followed by an insert; the worker pool exists only to
// bound concurrent store calls.
type IngestService struct {
	repo     questRepository
	resolver dueDateResolver
	logger   *zap.Logger
	cfg      IngestConfig
}

// NewIngestService builds an ingest service.
func NewIngestService(repo questRepository, resolver dueDateResolver, logger *zap.Logger, cfg IngestConfig) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &IngestService{repo: repo, resolver: resolver, logger: logger, cfg: cfg}
}

// Sync pushes all tasks through the worker pool and blocks until every task
// reached a terminal outcome or the context is cancelled. Individual task
// failures are counted, never propagated: a bad row must not sink the run.
// Cancellation is surfaced: tasks that never settled count as failed and
// ctx.Err() is returned alongside the partial summary.
func (s *IngestService) Sync(ctx context.Context, tasks []models.ScrapedTask) (*SyncSummary, error) {
	summary := &SyncSummary{Total: len(tasks)}
	if len(tasks) == 0 {
		return summary, nil
	}

	type outcome struct {
		inserted bool
		failed   bool
	}
	results := make(chan outcome, len(tasks))

	handler := func(ctx context.Context, job jobs.Job) error {
		task, ok := job.Payload.(models.ScrapedTask)
		if !ok {
			results <- outcome{failed: true}
			return nil
		}

		inserted, err := s.processOne(ctx, task)
		if err != nil {
			if ctx.Err() == nil && job.Attempt+1 < s.cfg.MaxRetries {
				return err
			}
			s.logger.Error("task sync failed", zap.String("subject", task.Subject), zap.String("title", task.Title), zap.Error(err))
			results <- outcome{failed: true}
			return nil
		}

		results <- outcome{inserted: inserted}
		return nil
	}

	queue := jobs.NewQueue("quest-sync", handler, jobs.QueueConfig{
		Workers:    s.cfg.Workers,
		BufferSize: len(tasks) + s.cfg.Workers,
		MaxRetries: s.cfg.MaxRetries,
		RetryDelay: s.cfg.RetryDelay,
		Logger:     s.logger,
	})
	queue.Start(ctx)
	defer queue.Stop()

	pending := 0
	for i, task := range tasks {
		job := jobs.Job{ID: fmt.Sprintf("sync-%d", i), Type: "quest_sync", Payload: task}
		if err := queue.Enqueue(job); err != nil {
			summary.Failed++
			continue
		}
		pending++
	}

	for settled := 0; settled < pending; settled++ {
		select {
		case <-ctx.Done():
			summary.Failed = summary.Total - summary.Inserted - summary.Duplicates
			s.logger.Sugar().Warnw("sync run cancelled",
				"settled", settled,
				"outstanding", pending-settled,
				"error", ctx.Err(),
			)
			return summary, ctx.Err()
		case o := <-results:
			switch {
			case o.failed:
				summary.Failed++
			case o.inserted:
				summary.Inserted++
			default:
				summary.Duplicates++
			}
		}
	}
	if err := ctx.Err(); err != nil {
		s.logger.Sugar().Warnw("sync run cancelled", "error", err)
		return summary, err
	}

	s.logger.Sugar().Infow("sync run finished",
		"total", summary.Total,
		"inserted", summary.Inserted,
		"duplicates", summary.Duplicates,
		"failed", summary.Failed,
	)
	return summary, nil
}

// processOne resolves a due date when the row had none, checks for an
// existing record, and inserts. Returns false when the task was a duplicate.
func (s *IngestService) processOne(ctx context.Context, task models.ScrapedTask) (bool, error) {
	quest := &models.Quest{
		Subject:      task.Subject,
		Title:        task.Title,
		Description:  task.Description,
		Type:         task.Type,
		Source:       models.QuestSourcePortal,
		ExternalRef:  task.ExternalRef,
		AssignedDate: task.AssignedDate,
		DueDate:      task.DueDate,
		Points:       pointsFor(task.Type),
	}
	if quest.Type == "" {
		quest.Type = models.QuestTypeHomework
	}

	if quest.DueDate.IsZero() {
		res := s.resolver.ResolveDueDate(ctx, quest.Subject, quest.AssignedDate)
		quest.DueDate = res.DueDate
		quest.CalculationMethod = string(res.Method)
		quest.NextClassInfo = res.NextClassInfo
	} else {
		// The portal supplied the date; nothing was computed.
		quest.CalculationMethod = CalculationMethodManual
		if quest.AssignedDate.IsZero() {
			quest.AssignedDate = quest.DueDate
		}
	}

	var exists bool
	var err error
	if task.ExternalRef != "" {
		exists, err = s.repo.ExistsBySource(ctx, models.QuestSourcePortal, task.ExternalRef)
	} else {
		exists, err = s.repo.ExistsByFields(ctx, quest.Subject, quest.Title, quest.DueDate)
	}
	if err != nil {
		return false, fmt.Errorf("check existing quest: %w", err)
	}
	if exists {
		return false, nil
	}

	if err := s.repo.Create(ctx, quest); err != nil {
		return false, fmt.Errorf("insert quest: %w", err)
	}
	return true, nil
}

func pointsFor(t models.QuestType) int {
	switch t {
	case models.QuestTypeExam:
		return 25
	case models.QuestTypeChore:
		return 5
	default:
		return 10
	}
}
