package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkataja/quest-board-api/internal/models"
	"github.com/vkataja/quest-board-api/pkg/duedate"
)

func TestExportServiceCSV(t *testing.T) {
	repo := newMockQuestRepo()
	repo.quests["q1"] = models.Quest{
		ID:                "q1",
		Subject:           "Math",
		Title:             "Exercises 4-6",
		Type:              models.QuestTypeHomework,
		AssignedDate:      duedate.NewDate(2024, time.June, 3),
		DueDate:           duedate.NewDate(2024, time.June, 4),
		CalculationMethod: string(duedate.MethodSchedule),
		Points:            10,
	}
	svc := NewExportService(repo, nil)

	data, filename, err := svc.ExportBoard(context.Background(), models.QuestFilter{}, "csv")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(filename, "quest-board-"))
	assert.True(t, strings.HasSuffix(filename, ".csv"))

	body := string(data)
	assert.Contains(t, body, "Subject,Title,Type,Assigned,Due,Method,Points,Completed")
	assert.Contains(t, body, "Math,Exercises 4-6,homework,2024-06-03,2024-06-04,schedule,10,no")
}

func TestExportServiceCSVSpansPages(t *testing.T) {
	repo := newMockQuestRepo()
	for i := 0; i < 250; i++ {
		id := fmt.Sprintf("q%03d", i)
		repo.quests[id] = models.Quest{
			ID:           id,
			Subject:      "Math",
			Title:        fmt.Sprintf("Exercises %d", i),
			Type:         models.QuestTypeHomework,
			AssignedDate: duedate.NewDate(2024, time.June, 3),
			DueDate:      duedate.NewDate(2024, time.June, 4),
			Points:       10,
		}
	}
	svc := NewExportService(repo, nil)

	data, _, err := svc.ExportBoard(context.Background(), models.QuestFilter{}, "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, 251)
	assert.Contains(t, string(data), "Exercises 249")
}

func TestExportServicePDF(t *testing.T) {
	repo := newMockQuestRepo()
	repo.quests["q1"] = models.Quest{
		ID:      "q1",
		Subject: "Math",
		Title:   "Exercises",
		Type:    models.QuestTypeHomework,
	}
	svc := NewExportService(repo, nil)

	data, filename, err := svc.ExportBoard(context.Background(), models.QuestFilter{}, "pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".pdf"))
	assert.True(t, len(data) > 0)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestExportServiceUnknownFormat(t *testing.T) {
	svc := NewExportService(newMockQuestRepo(), nil)

	_, _, err := svc.ExportBoard(context.Background(), models.QuestFilter{}, "xml")
	require.Error(t, err)
}
