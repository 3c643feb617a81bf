package models

import (
	"time"

	"github.com/lib/pq"

	"github.com/vkataja/quest-board-api/pkg/duedate"
)

// SubjectSchedule is one subject's weekly recurrence configuration: which
// weekdays the class meets plus the flat due interval used when no class day
// applies.
type SubjectSchedule struct {
	ID                 string         `db:"id" json:"id"`
	Subject            string         `db:"subject" json:"subject"`
	ClassDays          pq.StringArray `db:"class_days" json:"class_days" swaggertype:"array,string"`
	DefaultDueInterval int            `db:"default_due_interval" json:"default_due_interval"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// Weekdays parses the stored class-day names, dropping anything unparseable.
func (s SubjectSchedule) Weekdays() []time.Weekday {
	days := make([]time.Weekday, 0, len(s.ClassDays))
	for _, name := range s.ClassDays {
		if wd, ok := duedate.ParseWeekday(name); ok {
			days = append(days, wd)
		}
	}
	return days
}

// ResolverEntry converts the schedule row into the resolver's entry shape.
func (s SubjectSchedule) ResolverEntry() *duedate.Entry {
	return &duedate.Entry{
		Subject:            s.Subject,
		ClassDays:          s.Weekdays(),
		DefaultDueInterval: s.DefaultDueInterval,
	}
}
