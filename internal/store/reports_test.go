package store

import (
	"context"
	"testing"
	"time"

	"github.com/espressoapp/espresso-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport(id, title string) *domain.Report {
	report := &domain.Report{
		Syncable: domain.Syncable{ID: id},
		Title:    title,
		Content:  "# " + title + "\n\nBody text.",
		Category: domain.CategoryDevelopment,
		Author:   "admin@example.com",
	}
	report.InitTimestamps()
	return report
}

func TestCreateReport(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	report := testReport("rpt_test123", "First Report")
	report.Tags = []string{"#go", "#testing"}

	err := store.CreateReport(ctx, report)
	require.NoError(t, err)

	retrieved, err := store.GetReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.Title, retrieved.Title)
	assert.Equal(t, report.Content, retrieved.Content)
	assert.Equal(t, []string{"#go", "#testing"}, retrieved.Tags)
}

func TestCreateReport_Duplicate(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.CreateReport(ctx, testReport("rpt_dup", "One")))

	err := store.CreateReport(ctx, testReport("rpt_dup", "Two"))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetReport_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GetReport(context.Background(), "rpt_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateReport(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	report := testReport("rpt_update", "Original")
	require.NoError(t, store.CreateReport(ctx, report))

	report.Title = "Revised"
	report.Tags = []string{"#revised"}
	require.NoError(t, store.UpdateReport(ctx, report))

	retrieved, err := store.GetReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, "Revised", retrieved.Title)
	assert.Equal(t, []string{"#revised"}, retrieved.Tags)
	assert.False(t, retrieved.UpdatedAt.Before(retrieved.CreatedAt))
}

func TestUpdateReport_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.UpdateReport(context.Background(), testReport("rpt_ghost", "Ghost"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteReport(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()
	report := testReport("rpt_delete", "Doomed")
	require.NoError(t, store.CreateReport(ctx, report))

	require.NoError(t, store.DeleteReport(ctx, report.ID))

	_, err := store.GetReport(ctx, report.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Idempotent
	assert.NoError(t, store.DeleteReport(ctx, report.ID))
}

func TestListReports_NewestFirst(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	older := testReport("rpt_older", "Older")
	older.CreatedAt = time.Now().Add(-2 * time.Hour)
	newer := testReport("rpt_newer", "Newer")
	newer.CreatedAt = time.Now().Add(-1 * time.Hour)

	require.NoError(t, store.CreateReport(ctx, older))
	require.NoError(t, store.CreateReport(ctx, newer))

	reports, err := store.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "rpt_newer", reports[0].ID)
	assert.Equal(t, "rpt_older", reports[1].ID)
}

func TestCountReports(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	count, err := store.CountReports(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, store.CreateReport(ctx, testReport("rpt_1", "One")))
	require.NoError(t, store.CreateReport(ctx, testReport("rpt_2", "Two")))

	count, err = store.CountReports(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestListTagNames(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	first := testReport("rpt_tags1", "Tagged One")
	first.CreatedAt = time.Now().Add(-2 * time.Hour)
	first.Tags = []string{"#Go", "#linux"}
	require.NoError(t, store.CreateReport(ctx, first))

	second := testReport("rpt_tags2", "Tagged Two")
	second.CreatedAt = time.Now().Add(-1 * time.Hour)
	second.Tags = []string{"#go", "#docker"}
	require.NoError(t, store.CreateReport(ctx, second))

	tags, err := store.ListTagNames(ctx)
	require.NoError(t, err)

	// Newest report is seen first, so its spelling wins on conflicts
	assert.Equal(t, []string{"#go", "#docker", "#linux"}, tags)
}
