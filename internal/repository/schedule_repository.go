package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vkataja/quest-board-api/internal/models"
)

const scheduleColumns = "id, subject, class_days, default_due_interval, created_at, updated_at"

// ScheduleRepository provides persistence for subject schedule configuration.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// List returns all subject schedules ordered by subject.
func (r *ScheduleRepository) List(ctx context.Context) ([]models.SubjectSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM subject_schedules ORDER BY subject", scheduleColumns)
	var schedules []models.SubjectSchedule
	if err := r.db.SelectContext(ctx, &schedules, query); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// FindBySubject returns the schedule for a canonical subject name.
func (r *ScheduleRepository) FindBySubject(ctx context.Context, subject string) (*models.SubjectSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM subject_schedules WHERE LOWER(subject) = LOWER($1)", scheduleColumns)
	var schedule models.SubjectSchedule
	if err := r.db.GetContext(ctx, &schedule, query, subject); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// Upsert inserts or replaces a subject's schedule, keyed by subject name.
func (r *ScheduleRepository) Upsert(ctx context.Context, schedule *models.SubjectSchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `INSERT INTO subject_schedules (id, subject, class_days, default_due_interval, created_at, updated_at)
		VALUES (:id, :subject, :class_days, :default_due_interval, :created_at, :updated_at)
		ON CONFLICT (subject) DO UPDATE SET class_days = EXCLUDED.class_days, default_due_interval = EXCLUDED.default_due_interval, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

// Delete removes a subject's schedule.
func (r *ScheduleRepository) Delete(ctx context.Context, subject string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM subject_schedules WHERE LOWER(subject) = LOWER($1)`, subject); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}
