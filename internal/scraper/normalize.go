package scraper

import (
	"strings"

	"github.com/vkataja/quest-board-api/internal/models"
	"github.com/vkataja/quest-board-api/pkg/duedate"
)

// categoryTypes maps the portal's category labels (Finnish and English) to
// quest types. Unlisted categories fall back to homework.
var categoryTypes = map[string]models.QuestType{
	"koe":      models.QuestTypeExam,
	"exam":     models.QuestTypeExam,
	"test":     models.QuestTypeExam,
	"läksy":    models.QuestTypeHomework,
	"homework": models.QuestTypeHomework,
	"chore":    models.QuestTypeChore,
	"kotityö":  models.QuestTypeChore,
}

// NormalizeTasks converts raw portal rows into scraped tasks. Rows without a
// subject or title are dropped; bad dates are zeroed so resolution can fill
// them in downstream.
func NormalizeTasks(raw []RawTask) []models.ScrapedTask {
	tasks := make([]models.ScrapedTask, 0, len(raw))
	for _, r := range raw {
		subject := strings.TrimSpace(r.Subject)
		title := collapseSpaces(r.Title)
		if subject == "" || title == "" {
			continue
		}

		tasks = append(tasks, models.ScrapedTask{
			Subject:      duedate.NormalizeSubject(subject),
			Title:        title,
			Description:  collapseSpaces(r.Description),
			Type:         taskType(r.Category),
			ExternalRef:  strings.TrimSpace(r.ExternalRef),
			AssignedDate: parseDate(r.Assigned),
			DueDate:      parseDate(r.Due),
		})
	}
	return tasks
}

func taskType(category string) models.QuestType {
	if t, ok := categoryTypes[strings.ToLower(strings.TrimSpace(category))]; ok {
		return t
	}
	return models.QuestTypeHomework
}

// parseDate accepts the portal's dotted Finnish form first since that is what
// it renders, then ISO. Anything else becomes zero.
func parseDate(raw string) duedate.Date {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return duedate.Date{}
	}
	if d, err := duedate.ParseLegacy(raw); err == nil {
		return d
	}
	if d, err := duedate.ParseISO(raw); err == nil {
		return d
	}
	return duedate.Date{}
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
