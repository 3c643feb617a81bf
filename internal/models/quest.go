package models

import (
	"time"

	"github.com/vkataja/quest-board-api/pkg/duedate"
)

// QuestType classifies what kind of task a quest tracks.
type QuestType string

const (
	QuestTypeHomework QuestType = "homework"
	QuestTypeExam     QuestType = "exam"
	QuestTypeChore    QuestType = "chore"
)

// QuestSource records where a quest came from.
type QuestSource string

const (
	QuestSourcePortal QuestSource = "portal"
	QuestSourceManual QuestSource = "manual"
)

// Quest represents one tracked task on the board.
type Quest struct {
	ID                string       `db:"id" json:"id"`
	Subject           string       `db:"subject" json:"subject"`
	Title             string       `db:"title" json:"title"`
	Description       string       `db:"description" json:"description,omitempty"`
	Type              QuestType    `db:"quest_type" json:"type"`
	Source            QuestSource  `db:"source" json:"source"`
	ExternalRef       string       `db:"external_ref" json:"external_ref,omitempty"`
	AssignedDate      duedate.Date `db:"assigned_date" json:"assigned_date"`
	DueDate           duedate.Date `db:"due_date" json:"due_date"`
	CalculationMethod string       `db:"calculation_method" json:"calculation_method"`
	NextClassInfo     string       `db:"next_class_info" json:"next_class_info,omitempty"`
	Points            int          `db:"points" json:"points"`
	Completed         bool         `db:"completed" json:"completed"`
	CompletedAt       *time.Time   `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}

// QuestFilter captures filtering criteria for listing quests.
type QuestFilter struct {
	Subject   string
	Type      QuestType
	Source    QuestSource
	Completed *bool
	Search    string
	DueAfter  duedate.Date
	DueBefore duedate.Date
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
