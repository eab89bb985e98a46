package search

import (
	"context"
	"testing"
	"time"

	"github.com/espressoapp/espresso-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex(t *testing.T) *SearchIndex {
	t.Helper()

	idx, err := NewSearchIndex(Options{IndexPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func indexedReport(id, title, content, category string, tags ...string) *domain.Report {
	r := &domain.Report{
		Syncable: domain.Syncable{ID: id},
		Title:    title,
		Content:  content,
		Category: category,
		Author:   "admin@example.com",
		Tags:     tags,
	}
	r.InitTimestamps()
	return r
}

func TestIndexAndSearch_Title(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexReport(ctx, indexedReport(
		"rpt-1", "Deploying Go services", "Notes on rolling deploys.", domain.CategoryDevelopment, "#go")))
	require.NoError(t, idx.IndexReport(ctx, indexedReport(
		"rpt-2", "Gardening in August", "Tomatoes and basil.", domain.CategoryHobby)))

	result, err := idx.Search(ctx, SearchParams{Query: "deploying", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "rpt-1", result.Hits[0].ID)
	assert.Equal(t, "Deploying Go services", result.Hits[0].Title)
}

func TestSearch_ContentMatch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexReport(ctx, indexedReport(
		"rpt-1", "Weekly notes", "We migrated the scheduler to Kubernetes this week.", domain.CategoryCloud)))

	result, err := idx.Search(ctx, SearchParams{Query: "kubernetes", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "rpt-1", result.Hits[0].ID)
}

func TestSearch_CategoryAndTagFilters(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexReport(ctx, indexedReport(
		"rpt-1", "Container networking", "CNI plugins.", domain.CategoryContainer, "#docker", "#networking")))
	require.NoError(t, idx.IndexReport(ctx, indexedReport(
		"rpt-2", "Container storage", "Volume drivers.", domain.CategoryContainer, "#docker")))
	require.NoError(t, idx.IndexReport(ctx, indexedReport(
		"rpt-3", "Cloud networking", "VPC peering.", domain.CategoryCloud, "#networking")))

	// Category filter alone.
	result, err := idx.Search(ctx, SearchParams{Category: domain.CategoryContainer, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)

	// Category AND tag compose.
	result, err = idx.Search(ctx, SearchParams{Category: domain.CategoryContainer, Tag: "#networking", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "rpt-1", result.Hits[0].ID)
}

func TestDeleteReport(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.IndexReport(ctx, indexedReport(
		"rpt-1", "Ephemeral", "Gone soon.", domain.CategoryProgram)))
	require.NoError(t, idx.DeleteReport(ctx, "rpt-1"))

	result, err := idx.Search(ctx, SearchParams{Query: "ephemeral", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), result.Total)
}

func TestIndexReports_Batch(t *testing.T) {
	idx := newTestIndex(t)

	reports := []*domain.Report{
		indexedReport("rpt-1", "Alpha", "", domain.CategoryDevelopment),
		indexedReport("rpt-2", "Beta", "", domain.CategoryDevelopment),
		indexedReport("rpt-3", "Gamma", "", domain.CategoryDevelopment),
	}
	require.NoError(t, idx.IndexReports(reports))

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestReindexUpdatesDocument(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	report := indexedReport("rpt-1", "Original title", "", domain.CategoryDevelopment)
	require.NoError(t, idx.IndexReport(ctx, report))

	report.Title = "Revised title"
	report.UpdatedAt = time.Now()
	require.NoError(t, idx.IndexReport(ctx, report))

	result, err := idx.Search(ctx, SearchParams{Query: "revised", Limit: 10})
	require.NoError(t, err)
	require.Equal(t, uint64(1), result.Total)

	result, err = idx.Search(ctx, SearchParams{Query: "original", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), result.Total)
}
