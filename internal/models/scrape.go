package models

import "github.com/vkataja/quest-board-api/pkg/duedate"

// ScrapedTask is one normalized homework/exam row extracted from the school
// portal, ready for the sync loop. Subject is already canonical and dates are
// calendar dates; DueDate may be zero when the portal row carried none or an
// unparseable one, in which case resolution assigns it.
type ScrapedTask struct {
	Subject      string       `json:"subject"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Type         QuestType    `json:"type"`
	ExternalRef  string       `json:"external_ref,omitempty"`
	AssignedDate duedate.Date `json:"assigned_date"`
	DueDate      duedate.Date `json:"due_date"`
}
