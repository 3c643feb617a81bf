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
	"github.com/vkataja/quest-board-api/pkg/duedate"
)

func newQuestRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func questRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "subject", "title", "description", "quest_type", "source", "external_ref",
		"assigned_date", "due_date", "calculation_method", "next_class_info",
		"points", "completed", "completed_at", "created_at", "updated_at",
	}).AddRow(
		"q1", "Math", "Exercises 4-7", "", "homework", "portal", "wilma-123",
		time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.June, 4, 0, 0, 0, 0, time.UTC),
		"schedule", "Tuesday, 1 days after assignment",
		10, false, nil, now, now,
	)
}

func TestQuestRepositoryList(t *testing.T) {
	db, mock, cleanup := newQuestRepoMock(t)
	defer cleanup()

	repo := NewQuestRepository(db)
	mock.ExpectQuery("SELECT id, subject, title").
		WithArgs("Math").
		WillReturnRows(questRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs("Math").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	quests, total, err := repo.List(context.Background(), models.QuestFilter{Subject: "Math"})
	require.NoError(t, err)
	require.Len(t, quests, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "q1", quests[0].ID)
	assert.Equal(t, "2024-06-04", quests[0].DueDate.FormatISO())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newQuestRepoMock(t)
	defer cleanup()

	repo := NewQuestRepository(db)
	mock.ExpectQuery("SELECT id, subject, title").
		WithArgs("q1").
		WillReturnRows(questRows())

	quest, err := repo.FindByID(context.Background(), "q1")
	require.NoError(t, err)
	assert.Equal(t, "Math", quest.Subject)
	assert.Equal(t, models.QuestSourcePortal, quest.Source)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestRepositoryExistsBySource(t *testing.T) {
	db, mock, cleanup := newQuestRepoMock(t)
	defer cleanup()

	repo := NewQuestRepository(db)
	mock.ExpectQuery("SELECT 1 FROM quests WHERE source").
		WithArgs("portal", "wilma-123").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsBySource(context.Background(), models.QuestSourcePortal, "wilma-123")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestRepositoryExistsByFieldsNoRows(t *testing.T) {
	db, mock, cleanup := newQuestRepoMock(t)
	defer cleanup()

	repo := NewQuestRepository(db)
	mock.ExpectQuery(`SELECT 1 FROM quests WHERE LOWER\(subject\)`).
		WithArgs("Math", "Exercises 4-7", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err := repo.ExistsByFields(context.Background(), "Math", "Exercises 4-7", duedate.NewDate(2024, time.June, 4))
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newQuestRepoMock(t)
	defer cleanup()

	repo := NewQuestRepository(db)
	mock.ExpectExec("INSERT INTO quests").
		WillReturnResult(sqlmock.NewResult(1, 1))

	quest := &models.Quest{
		Subject:      "Math",
		Title:        "Exercises 4-7",
		Type:         models.QuestTypeHomework,
		Source:       models.QuestSourceManual,
		AssignedDate: duedate.NewDate(2024, time.June, 3),
		DueDate:      duedate.NewDate(2024, time.June, 4),
	}
	require.NoError(t, repo.Create(context.Background(), quest))
	assert.NotEmpty(t, quest.ID)
	assert.False(t, quest.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestRepositorySetCompleted(t *testing.T) {
	db, mock, cleanup := newQuestRepoMock(t)
	defer cleanup()

	repo := NewQuestRepository(db)
	completedAt := time.Now().UTC()
	mock.ExpectExec("UPDATE quests SET completed").
		WithArgs("q1", true, completedAt, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetCompleted(context.Background(), "q1", true, &completedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}
