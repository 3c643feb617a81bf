package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vkataja/quest-board-api/internal/models"
	"github.com/vkataja/quest-board-api/pkg/duedate"
)

const questColumns = "id, subject, title, description, quest_type, source, external_ref, assigned_date, due_date, calculation_method, next_class_info, points, completed, completed_at, created_at, updated_at"

// QuestRepository handles persistence for quests.
type QuestRepository struct {
	db *sqlx.DB
}

// NewQuestRepository creates a new repository instance.
func NewQuestRepository(db *sqlx.DB) *QuestRepository {
	return &QuestRepository{db: db}
}

// List returns quests matching filters with pagination metadata.
func (r *QuestRepository) List(ctx context.Context, filter models.QuestFilter) ([]models.Quest, int, error) {
	base := "FROM quests WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(subject) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("quest_type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Source != "" {
		conditions = append(conditions, fmt.Sprintf("source = $%d", len(args)+1))
		args = append(args, filter.Source)
	}
	if filter.Completed != nil {
		conditions = append(conditions, fmt.Sprintf("completed = $%d", len(args)+1))
		args = append(args, *filter.Completed)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if !filter.DueAfter.IsZero() {
		conditions = append(conditions, fmt.Sprintf("due_date >= $%d", len(args)+1))
		args = append(args, filter.DueAfter)
	}
	if !filter.DueBefore.IsZero() {
		conditions = append(conditions, fmt.Sprintf("due_date <= $%d", len(args)+1))
		args = append(args, filter.DueBefore)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"due_date":      true,
		"assigned_date": true,
		"subject":       true,
		"points":        true,
		"created_at":    true,
		"updated_at":    true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "due_date"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", questColumns, base, sortBy, order, size, offset)
	var quests []models.Quest
	if err := r.db.SelectContext(ctx, &quests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list quests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count quests: %w", err)
	}

	return quests, total, nil
}

// FindByID returns a quest by id.
func (r *QuestRepository) FindByID(ctx context.Context, id string) (*models.Quest, error) {
	query := fmt.Sprintf("SELECT %s FROM quests WHERE id = $1", questColumns)
	var quest models.Quest
	if err := r.db.GetContext(ctx, &quest, query, id); err != nil {
		return nil, err
	}
	return &quest, nil
}

// ExistsBySource checks whether a portal row with this stable reference was
// already ingested.
func (r *QuestRepository) ExistsBySource(ctx context.Context, source models.QuestSource, externalRef string) (bool, error) {
	const query = `SELECT 1 FROM quests WHERE source = $1 AND external_ref = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, source, externalRef); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check quest source ref: %w", err)
	}
	return true, nil
}

// ExistsByFields checks for an equal (subject, title, due date) record; the
// dedupe key for portal rows without a stable reference.
func (r *QuestRepository) ExistsByFields(ctx context.Context, subject, title string, dueDate duedate.Date) (bool, error) {
	const query = `SELECT 1 FROM quests WHERE LOWER(subject) = LOWER($1) AND LOWER(title) = LOWER($2) AND due_date = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, subject, title, dueDate); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check quest fields: %w", err)
	}
	return true, nil
}

// Create persists a new quest.
func (r *QuestRepository) Create(ctx context.Context, quest *models.Quest) error {
	if quest.ID == "" {
		quest.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if quest.CreatedAt.IsZero() {
		quest.CreatedAt = now
	}
	quest.UpdatedAt = now

	const query = `INSERT INTO quests (id, subject, title, description, quest_type, source, external_ref, assigned_date, due_date, calculation_method, next_class_info, points, completed, completed_at, created_at, updated_at)
		VALUES (:id, :subject, :title, :description, :quest_type, :source, :external_ref, :assigned_date, :due_date, :calculation_method, :next_class_info, :points, :completed, :completed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, quest); err != nil {
		return fmt.Errorf("create quest: %w", err)
	}
	return nil
}

// Update modifies a quest.
func (r *QuestRepository) Update(ctx context.Context, quest *models.Quest) error {
	quest.UpdatedAt = time.Now().UTC()
	const query = `UPDATE quests SET subject = :subject, title = :title, description = :description, quest_type = :quest_type, due_date = :due_date, calculation_method = :calculation_method, next_class_info = :next_class_info, points = :points, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, quest); err != nil {
		return fmt.Errorf("update quest: %w", err)
	}
	return nil
}

// SetCompleted flips completion state.
func (r *QuestRepository) SetCompleted(ctx context.Context, id string, completed bool, completedAt *time.Time) error {
	const query = `UPDATE quests SET completed = $2, completed_at = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, completed, completedAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("set quest completed: %w", err)
	}
	return nil
}

// Delete removes a quest record.
func (r *QuestRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM quests WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete quest: %w", err)
	}
	return nil
}
