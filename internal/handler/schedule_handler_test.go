package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkataja/quest-board-api/internal/models"
	"github.com/vkataja/quest-board-api/internal/service"
	"github.com/vkataja/quest-board-api/pkg/duedate"
)

type scheduleStoreStub struct {
	schedules map[string]models.SubjectSchedule
}

func (s *scheduleStoreStub) List(ctx context.Context) ([]models.SubjectSchedule, error) {
	var list []models.SubjectSchedule
	for _, sched := range s.schedules {
		list = append(list, sched)
	}
	return list, nil
}

func (s *scheduleStoreStub) FindBySubject(ctx context.Context, subject string) (*models.SubjectSchedule, error) {
	if sched, ok := s.schedules[subject]; ok {
		return &sched, nil
	}
	return nil, sql.ErrNoRows
}

func (s *scheduleStoreStub) Upsert(ctx context.Context, schedule *models.SubjectSchedule) error {
	s.schedules[schedule.Subject] = *schedule
	return nil
}

func (s *scheduleStoreStub) Delete(ctx context.Context, subject string) error {
	delete(s.schedules, subject)
	return nil
}

func newResolveHandler() *ScheduleHandler {
	store := &scheduleStoreStub{schedules: map[string]models.SubjectSchedule{
		"Math": {
			Subject:            "Math",
			ClassDays:          []string{"Tuesday", "Friday"},
			DefaultDueInterval: 7,
		},
	}}
	svc := service.NewScheduleService(store, nil, nil, nil, service.ScheduleServiceConfig{
		DefaultDueInterval: 7,
		HorizonDays:        14,
		Timezone:           time.UTC,
	})
	return NewScheduleHandler(svc)
}

func postResolve(t *testing.T, h *ScheduleHandler, body string) (*httptest.ResponseRecorder, ResolveResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/schedules/resolve", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	h.Resolve(c)

	var envelope struct {
		Data ResolveResponse `json:"data"`
	}
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	}
	return w, envelope.Data
}

func TestScheduleHandlerResolveKnownSubject(t *testing.T) {
	h := newResolveHandler()

	w, res := postResolve(t, h, `{"subject":"matematiikka","creation_date":"2024-06-03"}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "Math", res.Subject)
	assert.Equal(t, "2024-06-04", res.DueDate)
	assert.Equal(t, string(duedate.MethodSchedule), res.Method)
	assert.Equal(t, "Tuesday, 1 days after assignment", res.NextClassInfo)
}

func TestScheduleHandlerResolveLegacyDate(t *testing.T) {
	h := newResolveHandler()

	w, res := postResolve(t, h, `{"subject":"Math","creation_date":"3.6.2024"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-06-04", res.DueDate)
}

func TestScheduleHandlerResolveUnknownSubject(t *testing.T) {
	h := newResolveHandler()

	w, res := postResolve(t, h, `{"subject":"Astronomy","creation_date":"2024-06-03"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-06-10", res.DueDate)
	assert.Equal(t, string(duedate.MethodDefault), res.Method)
}

func TestScheduleHandlerResolveMalformedDateStillResolves(t *testing.T) {
	h := newResolveHandler()

	w, res := postResolve(t, h, `{"subject":"Math","creation_date":"not a date"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(duedate.MethodError), res.Method)
	assert.NotEmpty(t, res.DueDate)
}

func TestScheduleHandlerResolveMissingSubject(t *testing.T) {
	h := newResolveHandler()

	w, _ := postResolve(t, h, `{"creation_date":"2024-06-03"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
