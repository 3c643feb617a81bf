package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vkataja/quest-board-api/internal/models"
	"github.com/vkataja/quest-board-api/pkg/duedate"
	appErrors "github.com/vkataja/quest-board-api/pkg/errors"
)

type questRepository interface {
	List(ctx context.Context, filter models.QuestFilter) ([]models.Quest, int, error)
	FindByID(ctx context.Context, id string) (*models.Quest, error)
	ExistsBySource(ctx context.Context, source models.QuestSource, externalRef string) (bool, error)
	ExistsByFields(ctx context.Context, subject, title string, dueDate duedate.Date) (bool, error)
	Create(ctx context.Context, quest *models.Quest) error
	Update(ctx context.Context, quest *models.Quest) error
	SetCompleted(ctx context.Context, id string, completed bool, completedAt *time.Time) error
	Delete(ctx context.Context, id string) error
}

type dueDateResolver interface {
	ResolveDueDate(ctx context.Context, subject string, created duedate.Date) duedate.Resolution
}

// CreateQuestRequest captures fields for creating quests. DueDate is
// optional: when omitted, resolution assigns the subject's next class day.
type CreateQuestRequest struct {
	Subject      string `json:"subject" validate:"required"`
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description"`
	Type         string `json:"type" validate:"omitempty,oneof=homework exam chore"`
	AssignedDate string `json:"assigned_date" validate:"omitempty"`
	DueDate      string `json:"due_date" validate:"omitempty"`
	Points       int    `json:"points" validate:"gte=0"`
}

// UpdateQuestRequest modifies quest fields. An empty DueDate triggers
// re-resolution from the assigned date.
type UpdateQuestRequest struct {
	Subject     string `json:"subject" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Type        string `json:"type" validate:"omitempty,oneof=homework exam chore"`
	DueDate     string `json:"due_date" validate:"omitempty"`
	Points      int    `json:"points" validate:"gte=0"`
}

// CalculationMethodManual marks records whose due date the caller supplied
// instead of the resolver.
const CalculationMethodManual = "manual"

// QuestService handles quest workflows.
type QuestService struct {
	repo      questRepository
	resolver  dueDateResolver
	validator *validator.Validate
	logger    *zap.Logger
	timezone  *time.Location
}

// NewQuestService creates a new quest service.
func NewQuestService(repo questRepository, resolver dueDateResolver, validate *validator.Validate, logger *zap.Logger, tz *time.Location) *QuestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestService{repo: repo, resolver: resolver, validator: validate, logger: logger, timezone: tz}
}

// List returns paginated quests.
func (s *QuestService) List(ctx context.Context, filter models.QuestFilter) ([]models.Quest, *models.Pagination, error) {
	quests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list quests")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return quests, pagination, nil
}

// Get returns a quest by identifier.
func (s *QuestService) Get(ctx context.Context, id string) (*models.Quest, error) {
	quest, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quest not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quest")
	}
	return quest, nil
}

// Create adds a quest, resolving the due date when none was supplied.
func (s *QuestService) Create(ctx context.Context, req CreateQuestRequest) (*models.Quest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quest payload")
	}

	questType := models.QuestType(req.Type)
	if questType == "" {
		questType = models.QuestTypeHomework
	}

	assigned := duedate.Today(s.timezone)
	if req.AssignedDate != "" {
		parsed, err := duedate.ParseISO(req.AssignedDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "assigned_date must be YYYY-MM-DD")
		}
		assigned = parsed
	}

	quest := &models.Quest{
		Subject:      duedate.NormalizeSubject(strings.TrimSpace(req.Subject)),
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Type:         questType,
		Source:       models.QuestSourceManual,
		AssignedDate: assigned,
		Points:       req.Points,
	}

	if req.DueDate != "" {
		due, err := duedate.ParseISO(req.DueDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "due_date must be YYYY-MM-DD")
		}
		if due.Before(assigned) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "due_date cannot precede assigned_date")
		}
		quest.DueDate = due
		quest.CalculationMethod = CalculationMethodManual
	} else {
		res := s.resolver.ResolveDueDate(ctx, quest.Subject, assigned)
		quest.DueDate = res.DueDate
		quest.CalculationMethod = string(res.Method)
		quest.NextClassInfo = res.NextClassInfo
	}

	if err := s.repo.Create(ctx, quest); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create quest")
	}
	return quest, nil
}

// Update modifies an existing quest. Clearing the due date re-runs resolution
// from the quest's assigned date.
func (s *QuestService) Update(ctx context.Context, id string, req UpdateQuestRequest) (*models.Quest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quest payload")
	}

	quest, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	quest.Subject = duedate.NormalizeSubject(strings.TrimSpace(req.Subject))
	quest.Title = strings.TrimSpace(req.Title)
	quest.Description = strings.TrimSpace(req.Description)
	if req.Type != "" {
		quest.Type = models.QuestType(req.Type)
	}
	quest.Points = req.Points

	if req.DueDate != "" {
		due, err := duedate.ParseISO(req.DueDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "due_date must be YYYY-MM-DD")
		}
		quest.DueDate = due
		quest.CalculationMethod = CalculationMethodManual
		quest.NextClassInfo = ""
	} else {
		res := s.resolver.ResolveDueDate(ctx, quest.Subject, quest.AssignedDate)
		quest.DueDate = res.DueDate
		quest.CalculationMethod = string(res.Method)
		quest.NextClassInfo = res.NextClassInfo
	}

	if err := s.repo.Update(ctx, quest); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update quest")
	}
	return quest, nil
}

// Complete marks a quest done.
func (s *QuestService) Complete(ctx context.Context, id string) (*models.Quest, error) {
	quest, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if quest.Completed {
		return nil, appErrors.Clone(appErrors.ErrAlreadyCompleted, "")
	}

	now := time.Now().UTC()
	if err := s.repo.SetCompleted(ctx, id, true, &now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete quest")
	}
	quest.Completed = true
	quest.CompletedAt = &now
	return quest, nil
}

// Reopen puts a completed quest back on the board.
func (s *QuestService) Reopen(ctx context.Context, id string) (*models.Quest, error) {
	quest, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !quest.Completed {
		return quest, nil
	}

	if err := s.repo.SetCompleted(ctx, id, false, nil); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reopen quest")
	}
	quest.Completed = false
	quest.CompletedAt = nil
	return quest, nil
}

// Delete removes a quest.
func (s *QuestService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete quest")
	}
	return nil
}
