package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vkataja/quest-board-api/internal/models"
	"github.com/vkataja/quest-board-api/pkg/duedate"
	appErrors "github.com/vkataja/quest-board-api/pkg/errors"
)

type scheduleRepository interface {
	List(ctx context.Context) ([]models.SubjectSchedule, error)
	FindBySubject(ctx context.Context, subject string) (*models.SubjectSchedule, error)
	Upsert(ctx context.Context, schedule *models.SubjectSchedule) error
	Delete(ctx context.Context, subject string) error
}

type scheduleCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type resolutionObserver interface {
	ObserveResolution(method duedate.Method)
}

// UpsertScheduleRequest configures a subject's weekly recurrence.
type UpsertScheduleRequest struct {
	Subject            string   `json:"subject" validate:"required"`
	ClassDays          []string `json:"class_days" validate:"required,min=1"`
	DefaultDueInterval int      `json:"default_due_interval" validate:"gte=0"`
}

// ScheduleServiceConfig tunes resolution behaviour.
type ScheduleServiceConfig struct {
	DefaultDueInterval int
	HorizonDays        int
	CacheTTL           time.Duration
	Timezone           *time.Location
}

// ScheduleService manages subject schedule configuration and performs
// due-date resolution against it.
type ScheduleService struct {
	repo      scheduleRepository
	cache     scheduleCache
	resolver  *duedate.Resolver
	validator *validator.Validate
	logger    *zap.Logger
	metrics   resolutionObserver
	cacheTTL  time.Duration
}

// NewScheduleService creates a schedule service. Cache and metrics may be nil.
func NewScheduleService(repo scheduleRepository, cache scheduleCache, validate *validator.Validate, logger *zap.Logger, cfg ScheduleServiceConfig) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Minute
	}

	s := &ScheduleService{
		repo:      repo,
		cache:     cache,
		validator: validate,
		logger:    logger,
		cacheTTL:  cfg.CacheTTL,
	}

	tz := cfg.Timezone
	s.resolver = duedate.NewResolver(
		duedate.LookupFunc(s.scheduleFor),
		duedate.WithDefaultInterval(cfg.DefaultDueInterval),
		duedate.WithHorizon(cfg.HorizonDays),
		duedate.WithToday(func() duedate.Date { return duedate.Today(tz) }),
	)
	return s
}

// SetMetrics attaches a resolution observer after construction.
func (s *ScheduleService) SetMetrics(m resolutionObserver) {
	s.metrics = m
}

// List returns every configured subject schedule.
func (s *ScheduleService) List(ctx context.Context) ([]models.SubjectSchedule, error) {
	schedules, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return schedules, nil
}

// Get returns the schedule for a subject, normalizing the name first.
func (s *ScheduleService) Get(ctx context.Context, subject string) (*models.SubjectSchedule, error) {
	schedule, err := s.repo.FindBySubject(ctx, duedate.NormalizeSubject(subject))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// Upsert creates or replaces a subject's schedule.
func (s *ScheduleService) Upsert(ctx context.Context, req UpsertScheduleRequest) (*models.SubjectSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	classDays := make([]string, 0, len(req.ClassDays))
	for _, name := range req.ClassDays {
		wd, ok := duedate.ParseWeekday(name)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrInvalidWeekday, fmt.Sprintf("unknown weekday %q", name))
		}
		classDays = append(classDays, wd.String())
	}

	schedule := &models.SubjectSchedule{
		Subject:            duedate.NormalizeSubject(strings.TrimSpace(req.Subject)),
		ClassDays:          classDays,
		DefaultDueInterval: req.DefaultDueInterval,
	}

	if err := s.repo.Upsert(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save schedule")
	}

	s.invalidateCache(ctx)
	return schedule, nil
}

// Delete removes a subject's schedule.
func (s *ScheduleService) Delete(ctx context.Context, subject string) error {
	if err := s.repo.Delete(ctx, duedate.NormalizeSubject(subject)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	s.invalidateCache(ctx)
	return nil
}

// ResolveDueDate computes the due date for a subject and creation date. It
// never returns an error: lookup misses and store failures degrade to the
// default interval, and a zero creation date degrades to today.
func (s *ScheduleService) ResolveDueDate(ctx context.Context, subject string, created duedate.Date) duedate.Resolution {
	res := s.resolver.Resolve(ctx, subject, created)
	if s.metrics != nil {
		s.metrics.ObserveResolution(res.Method)
	}
	return res
}

// scheduleFor is the resolver's lookup: cache first, store second. Failures
// are logged and reported upward, where the resolver degrades to defaults.
func (s *ScheduleService) scheduleFor(ctx context.Context, subject string) (*duedate.Entry, error) {
	key := "schedule:" + strings.ToLower(subject)

	if s.cache != nil {
		var cached models.SubjectSchedule
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached.ResolverEntry(), nil
		}
	}

	schedule, err := s.repo.FindBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		s.logger.Warn("schedule lookup failed, using defaults", zap.String("subject", subject), zap.Error(err))
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, schedule, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache schedule", zap.String("subject", subject), zap.Error(err))
		}
	}

	return schedule.ResolverEntry(), nil
}

func (s *ScheduleService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "schedule:*"); err != nil {
		s.logger.Warn("failed to invalidate schedule cache", zap.Error(err))
	}
}
