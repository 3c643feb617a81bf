package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkataja/quest-board-api/internal/models"
	"github.com/vkataja/quest-board-api/pkg/duedate"
)

func newIngestService(repo *mockQuestRepo, resolver *stubResolver) *IngestService {
	return NewIngestService(repo, resolver, nil, IngestConfig{
		Workers:    2,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})
}

func portalTask(ref string) models.ScrapedTask {
	return models.ScrapedTask{
		Subject:      "Math",
		Title:        "Exercises 4-6",
		Type:         models.QuestTypeHomework,
		ExternalRef:  ref,
		AssignedDate: duedate.NewDate(2024, time.June, 3),
	}
}

func TestIngestServiceSyncInsertsAndResolves(t *testing.T) {
	repo := newMockQuestRepo()
	resolver := &stubResolver{resolution: scheduleResolution(duedate.NewDate(2024, time.June, 4))}
	svc := newIngestService(repo, resolver)

	summary, err := svc.Sync(context.Background(), []models.ScrapedTask{portalTask("wilma-1")})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Inserted)
	assert.Zero(t, summary.Duplicates)
	assert.Zero(t, summary.Failed)

	require.Len(t, repo.created, 1)
	quest := repo.created[0]
	assert.Equal(t, models.QuestSourcePortal, quest.Source)
	assert.Equal(t, "wilma-1", quest.ExternalRef)
	assert.Equal(t, "2024-06-04", quest.DueDate.FormatISO())
	assert.Equal(t, string(duedate.MethodSchedule), quest.CalculationMethod)
	assert.Equal(t, 10, quest.Points)
}

func TestIngestServiceSyncPortalDueDateKept(t *testing.T) {
	repo := newMockQuestRepo()
	resolver := &stubResolver{}
	svc := newIngestService(repo, resolver)

	task := portalTask("wilma-2")
	task.Type = models.QuestTypeExam
	task.DueDate = duedate.NewDate(2024, time.June, 14)

	summary, err := svc.Sync(context.Background(), []models.ScrapedTask{task})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Inserted)
	assert.Zero(t, resolver.calls)

	quest := repo.created[0]
	assert.Equal(t, CalculationMethodManual, quest.CalculationMethod)
	assert.Equal(t, 25, quest.Points)
}

func TestIngestServiceSyncSkipsDuplicatesByRef(t *testing.T) {
	repo := newMockQuestRepo()
	repo.existsRefs["wilma-1"] = true
	resolver := &stubResolver{resolution: scheduleResolution(duedate.NewDate(2024, time.June, 4))}
	svc := newIngestService(repo, resolver)

	summary, err := svc.Sync(context.Background(), []models.ScrapedTask{portalTask("wilma-1")})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Duplicates)
	assert.Zero(t, summary.Inserted)
	assert.Empty(t, repo.created)
}

func TestIngestServiceSyncSkipsDuplicatesByFields(t *testing.T) {
	repo := newMockQuestRepo()
	repo.existsFields["Math|Exercises 4-6|2024-06-04"] = true
	resolver := &stubResolver{resolution: scheduleResolution(duedate.NewDate(2024, time.June, 4))}
	svc := newIngestService(repo, resolver)

	summary, err := svc.Sync(context.Background(), []models.ScrapedTask{portalTask("")})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Duplicates)
	assert.Empty(t, repo.created)
}

func TestIngestServiceSyncCountsFailures(t *testing.T) {
	repo := newMockQuestRepo()
	repo.createErr = errors.New("insert failed")
	resolver := &stubResolver{resolution: scheduleResolution(duedate.NewDate(2024, time.June, 4))}
	svc := newIngestService(repo, resolver)

	summary, err := svc.Sync(context.Background(), []models.ScrapedTask{portalTask("wilma-1"), portalTask("wilma-2")})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Failed)
	assert.Zero(t, summary.Inserted)
}

// blockingQuestRepo parks every existence check until the context dies,
// standing in for a store that is slow but honors cancellation.
type blockingQuestRepo struct {
	*mockQuestRepo
}

func (b *blockingQuestRepo) ExistsBySource(ctx context.Context, source models.QuestSource, externalRef string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
}

func TestIngestServiceSyncContextCancelled(t *testing.T) {
	repo := &blockingQuestRepo{mockQuestRepo: newMockQuestRepo()}
	resolver := &stubResolver{resolution: scheduleResolution(duedate.NewDate(2024, time.June, 4))}
	svc := NewIngestService(repo, resolver, nil, IngestConfig{
		Workers:    2,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	tasks := []models.ScrapedTask{portalTask("wilma-1"), portalTask("wilma-2"), portalTask("wilma-3")}

	type result struct {
		summary *SyncSummary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		summary, err := svc.Sync(ctx, tasks)
		done <- result{summary, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case res := <-done:
		require.ErrorIs(t, res.err, context.Canceled)
		assert.Equal(t, 3, res.summary.Total)
		assert.Equal(t, 3, res.summary.Failed)
		assert.Zero(t, res.summary.Inserted)
		assert.Zero(t, res.summary.Duplicates)
	case <-time.After(3 * time.Second):
		t.Fatal("sync did not return after cancellation")
	}
}

func TestIngestServiceSyncEmptyRun(t *testing.T) {
	svc := newIngestService(newMockQuestRepo(), &stubResolver{})

	summary, err := svc.Sync(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
}
