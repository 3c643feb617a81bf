package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkataja/quest-board-api/internal/models"
)

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestScheduleRepositoryFindBySubject(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "subject", "class_days", "default_due_interval", "created_at", "updated_at"}).
		AddRow("s1", "Math", "{Tuesday,Friday}", 7, now, now)
	mock.ExpectQuery("SELECT id, subject, class_days").
		WithArgs("Math").
		WillReturnRows(rows)

	schedule, err := repo.FindBySubject(context.Background(), "Math")
	require.NoError(t, err)
	assert.Equal(t, "Math", schedule.Subject)
	assert.Equal(t, []time.Weekday{time.Tuesday, time.Friday}, schedule.Weekdays())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryList(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "subject", "class_days", "default_due_interval", "created_at", "updated_at"}).
		AddRow("s1", "History", "{Monday}", 7, now, now).
		AddRow("s2", "Math", "{Tuesday,Friday}", 7, now, now)
	mock.ExpectQuery("SELECT id, subject, class_days").
		WillReturnRows(rows)

	schedules, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, schedules, 2)
	assert.Equal(t, "History", schedules[0].Subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	mock.ExpectExec("INSERT INTO subject_schedules").
		WillReturnResult(sqlmock.NewResult(1, 1))

	schedule := &models.SubjectSchedule{
		Subject:            "Math",
		ClassDays:          []string{"Tuesday", "Friday"},
		DefaultDueInterval: 7,
	}
	require.NoError(t, repo.Upsert(context.Background(), schedule))
	assert.NotEmpty(t, schedule.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()

	repo := NewScheduleRepository(db)
	mock.ExpectExec("DELETE FROM subject_schedules").
		WithArgs("Math").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "Math"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
