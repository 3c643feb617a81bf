package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vkataja/quest-board-api/internal/models"
	appErrors "github.com/vkataja/quest-board-api/pkg/errors"
	"github.com/vkataja/quest-board-api/pkg/export"
)

var exportHeaders = []string{"Subject", "Title", "Type", "Assigned", "Due", "Method", "Points", "Completed"}

// exportPageSize bounds each page fetch; the export walks pages until the
// store runs out of rows so large boards are never truncated.
const exportPageSize = 100

// ExportService renders board snapshots as CSV or PDF.
type ExportService struct {
	repo   questRepository
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService creates an export service.
func NewExportService(repo questRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:   repo,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

// ExportBoard renders the quests matching the filter in the requested
// format. Supported formats are "csv" and "pdf".
func (s *ExportService) ExportBoard(ctx context.Context, filter models.QuestFilter, format string) ([]byte, string, error) {
	filter.PageSize = exportPageSize

	var quests []models.Quest
	for page := 1; ; page++ {
		filter.Page = page
		batch, _, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quests for export")
		}
		quests = append(quests, batch...)
		if len(batch) < exportPageSize {
			break
		}
	}

	dataset := buildDataset(quests)
	stamp := time.Now().UTC().Format("20060102")

	switch format {
	case "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return data, fmt.Sprintf("quest-board-%s.csv", stamp), nil
	case "pdf":
		data, err := s.pdf.Render(dataset, "Quest Board")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return data, fmt.Sprintf("quest-board-%s.pdf", stamp), nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func buildDataset(quests []models.Quest) export.Dataset {
	rows := make([]map[string]string, 0, len(quests))
	for _, q := range quests {
		completed := "no"
		if q.Completed {
			completed = "yes"
		}
		rows = append(rows, map[string]string{
			"Subject":   q.Subject,
			"Title":     q.Title,
			"Type":      string(q.Type),
			"Assigned":  q.AssignedDate.FormatISO(),
			"Due":       q.DueDate.FormatISO(),
			"Method":    q.CalculationMethod,
			"Points":    strconv.Itoa(q.Points),
			"Completed": completed,
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}
