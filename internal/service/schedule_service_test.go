package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vkataja/quest-board-api/internal/models"
	"github.com/vkataja/quest-board-api/pkg/duedate"
)

type mockScheduleRepo struct {
	schedules map[string]models.SubjectSchedule
	upserted  *models.SubjectSchedule
	deleted   []string
	failWith  error
	findCalls int
}

func (m *mockScheduleRepo) List(ctx context.Context) ([]models.SubjectSchedule, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var list []models.SubjectSchedule
	for _, s := range m.schedules {
		list = append(list, s)
	}
	return list, nil
}

func (m *mockScheduleRepo) FindBySubject(ctx context.Context, subject string) (*models.SubjectSchedule, error) {
	m.findCalls++
	if m.failWith != nil {
		return nil, m.failWith
	}
	if s, ok := m.schedules[subject]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScheduleRepo) Upsert(ctx context.Context, schedule *models.SubjectSchedule) error {
	if m.schedules == nil {
		m.schedules = make(map[string]models.SubjectSchedule)
	}
	m.schedules[schedule.Subject] = *schedule
	m.upserted = schedule
	return nil
}

func (m *mockScheduleRepo) Delete(ctx context.Context, subject string) error {
	delete(m.schedules, subject)
	m.deleted = append(m.deleted, subject)
	return nil
}

type mockScheduleCache struct {
	entries map[string][]byte
	gets    int
	hits    int
	purged  []string
}

func (m *mockScheduleCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	if raw, ok := m.entries[key]; ok {
		m.hits++
		return json.Unmarshal(raw, dest)
	}
	return errors.New("cache miss")
}

func (m *mockScheduleCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *mockScheduleCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.purged = append(m.purged, pattern)
	m.entries = nil
	return nil
}

func mathSchedule() models.SubjectSchedule {
	return models.SubjectSchedule{
		ID:                 "s1",
		Subject:            "Math",
		ClassDays:          []string{"Tuesday", "Friday"},
		DefaultDueInterval: 7,
	}
}

func newScheduleService(repo *mockScheduleRepo, cache *mockScheduleCache) *ScheduleService {
	var c scheduleCache
	if cache != nil {
		c = cache
	}
	return NewScheduleService(repo, c, validator.New(), zap.NewNop(), ScheduleServiceConfig{
		DefaultDueInterval: 7,
		HorizonDays:        14,
		CacheTTL:           time.Minute,
	})
}

func TestScheduleServiceResolveNextClassDay(t *testing.T) {
	repo := &mockScheduleRepo{schedules: map[string]models.SubjectSchedule{"Math": mathSchedule()}}
	svc := newScheduleService(repo, nil)

	res := svc.ResolveDueDate(context.Background(), "Math", duedate.NewDate(2024, time.June, 3))
	assert.Equal(t, "2024-06-04", res.DueDate.FormatISO())
	assert.Equal(t, duedate.MethodSchedule, res.Method)
}

func TestScheduleServiceResolveNormalizesSubject(t *testing.T) {
	repo := &mockScheduleRepo{schedules: map[string]models.SubjectSchedule{"Math": mathSchedule()}}
	svc := newScheduleService(repo, nil)

	res := svc.ResolveDueDate(context.Background(), "Matematiikka", duedate.NewDate(2024, time.June, 3))
	assert.Equal(t, duedate.MethodSchedule, res.Method)
	assert.Equal(t, "2024-06-04", res.DueDate.FormatISO())
}

func TestScheduleServiceResolveUnknownSubject(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newScheduleService(repo, nil)

	res := svc.ResolveDueDate(context.Background(), "Astrobiology", duedate.NewDate(2024, time.June, 3))
	assert.Equal(t, "2024-06-10", res.DueDate.FormatISO())
	assert.Equal(t, duedate.MethodDefault, res.Method)
}

func TestScheduleServiceResolveStoreFailureDegrades(t *testing.T) {
	repo := &mockScheduleRepo{failWith: errors.New("connection refused")}
	svc := newScheduleService(repo, nil)

	res := svc.ResolveDueDate(context.Background(), "Math", duedate.NewDate(2024, time.June, 3))
	assert.Equal(t, duedate.MethodDefault, res.Method)
	assert.Equal(t, "2024-06-10", res.DueDate.FormatISO())
}

func TestScheduleServiceResolveUsesCache(t *testing.T) {
	repo := &mockScheduleRepo{schedules: map[string]models.SubjectSchedule{"Math": mathSchedule()}}
	cache := &mockScheduleCache{}
	svc := newScheduleService(repo, cache)

	created := duedate.NewDate(2024, time.June, 3)
	first := svc.ResolveDueDate(context.Background(), "Math", created)
	second := svc.ResolveDueDate(context.Background(), "Math", created)

	assert.Equal(t, first.DueDate, second.DueDate)
	assert.Equal(t, 1, repo.findCalls)
	assert.Equal(t, 1, cache.hits)
}

func TestScheduleServiceUpsertValidatesWeekdays(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newScheduleService(repo, nil)

	_, err := svc.Upsert(context.Background(), UpsertScheduleRequest{
		Subject:   "Math",
		ClassDays: []string{"Tuesday", "Funday"},
	})
	require.Error(t, err)
	assert.Nil(t, repo.upserted)
}

func TestScheduleServiceUpsertNormalizesAndInvalidates(t *testing.T) {
	repo := &mockScheduleRepo{}
	cache := &mockScheduleCache{}
	svc := newScheduleService(repo, cache)

	schedule, err := svc.Upsert(context.Background(), UpsertScheduleRequest{
		Subject:            "matematiikka",
		ClassDays:          []string{"tuesday", "Friday"},
		DefaultDueInterval: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Math", schedule.Subject)
	assert.Equal(t, []string{"Tuesday", "Friday"}, []string(schedule.ClassDays))
	assert.Equal(t, []string{"schedule:*"}, cache.purged)
}

func TestScheduleServiceGetNotFound(t *testing.T) {
	repo := &mockScheduleRepo{}
	svc := newScheduleService(repo, nil)

	_, err := svc.Get(context.Background(), "Math")
	require.Error(t, err)
}
