package duedate

import (
	"context"
	"fmt"
	"time"
)

// Method describes how a due date was chosen.
type Method string

const (
	// MethodSchedule means the due date landed on the subject's next class day.
	MethodSchedule Method = "schedule"
	// MethodDefault means the flat interval fallback was applied.
	MethodDefault Method = "default"
	// MethodError means the creation date was unusable and today was substituted.
	MethodError Method = "error"
)

// FallbackPolicy selects the behaviour when no class day is found within the
// search horizon. The variants observed in the field disagreed, so both are
// named here; FallbackDefaultInterval is the shipped default.
type FallbackPolicy int

const (
	// FallbackDefaultInterval falls back to the subject's configured interval
	// (or the resolver default).
	FallbackDefaultInterval FallbackPolicy = iota
	// FallbackFirstClassDay places the due date on the first configured class
	// day at least one week out.
	FallbackFirstClassDay
)

// Entry is one subject's recurrence configuration.
type Entry struct {
	Subject            string
	ClassDays          []time.Weekday
	DefaultDueInterval int
}

// Lookup resolves a subject to its schedule entry. A nil entry with a nil
// error means the subject is not configured. Lookup failures are treated the
// same as not-found: resolution always degrades, it never aborts.
type Lookup interface {
	ScheduleFor(ctx context.Context, subject string) (*Entry, error)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, subject string) (*Entry, error)

// ScheduleFor implements Lookup.
func (f LookupFunc) ScheduleFor(ctx context.Context, subject string) (*Entry, error) {
	return f(ctx, subject)
}

// Resolution is the outcome of a due-date computation. It is always usable:
// no input, including a missing subject or a failed lookup, produces an
// error instead of a date.
type Resolution struct {
	DueDate       Date   `json:"due_date"`
	Method        Method `json:"calculation_method"`
	NextClassInfo string `json:"next_class_info"`
}

// Resolver computes due dates from a creation date and a weekly class-day
// schedule. It is a pure function over its inputs plus the injected lookup.
type Resolver struct {
	lookup          Lookup
	defaultInterval int
	horizonDays     int
	fallback        FallbackPolicy
	today           func() Date
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithDefaultInterval overrides the flat fallback interval in days.
func WithDefaultInterval(days int) Option {
	return func(r *Resolver) {
		if days > 0 {
			r.defaultInterval = days
		}
	}
}

// WithHorizon overrides how many days ahead the class-day scan looks.
func WithHorizon(days int) Option {
	return func(r *Resolver) {
		if days > 0 {
			r.horizonDays = days
		}
	}
}

// WithFallbackPolicy selects the horizon-exceeded behaviour.
func WithFallbackPolicy(p FallbackPolicy) Option {
	return func(r *Resolver) { r.fallback = p }
}

// WithToday injects the current-date source, used when the creation date is
// unusable. Tests use this to pin the clock.
func WithToday(today func() Date) Option {
	return func(r *Resolver) {
		if today != nil {
			r.today = today
		}
	}
}

// NewResolver builds a resolver around the given schedule lookup. A nil
// lookup behaves as if every subject were unconfigured.
func NewResolver(lookup Lookup, opts ...Option) *Resolver {
	r := &Resolver{
		lookup:          lookup,
		defaultInterval: 7,
		horizonDays:     14,
		fallback:        FallbackDefaultInterval,
		today:           func() Date { return Today(nil) },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps a subject and creation date to a due date. The subject's next
// scheduled class day within the horizon wins; otherwise the flat interval
// applies. A zero creation date substitutes today and tags the result as
// MethodError while still returning a valid date.
func (r *Resolver) Resolve(ctx context.Context, subject string, created Date) Resolution {
	if created.IsZero() {
		created = r.today()
		return Resolution{
			DueDate:       created.AddDays(r.defaultInterval),
			Method:        MethodError,
			NextClassInfo: fmt.Sprintf("Default %d day interval", r.defaultInterval),
		}
	}

	interval := r.defaultInterval
	var classDays []time.Weekday

	if r.lookup != nil {
		entry, err := r.lookup.ScheduleFor(ctx, NormalizeSubject(subject))
		if err == nil && entry != nil {
			classDays = entry.ClassDays
			if entry.DefaultDueInterval > 0 {
				interval = entry.DefaultDueInterval
			}
		}
	}

	if len(classDays) > 0 {
		for daysAhead := 1; daysAhead <= r.horizonDays; daysAhead++ {
			candidate := created.AddDays(daysAhead)
			if containsWeekday(classDays, candidate.Weekday()) {
				return Resolution{
					DueDate:       candidate,
					Method:        MethodSchedule,
					NextClassInfo: fmt.Sprintf("%s, %d days after assignment", candidate.Weekday(), daysAhead),
				}
			}
		}

		if r.fallback == FallbackFirstClassDay {
			// Guaranteed to land within created+7..created+13.
			for daysAhead := 7; daysAhead < 14; daysAhead++ {
				candidate := created.AddDays(daysAhead)
				if candidate.Weekday() == classDays[0] {
					return Resolution{
						DueDate:       candidate,
						Method:        MethodSchedule,
						NextClassInfo: fmt.Sprintf("%s, %d days after assignment", candidate.Weekday(), daysAhead),
					}
				}
			}
		}
	}

	return Resolution{
		DueDate:       created.AddDays(interval),
		Method:        MethodDefault,
		NextClassInfo: fmt.Sprintf("Default %d day interval", interval),
	}
}

func containsWeekday(days []time.Weekday, day time.Weekday) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
