package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createReport posts a report and returns the decoded response.
func (ts *testServer) createReport(t *testing.T, body map[string]any) ReportResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/reports", body)
	require.Equal(t, http.StatusOK, resp.Code, "create failed: %s", resp.Body.String())

	var report ReportResponse
	decodeBody(t, resp, &report)
	return report
}

func reportBody(title, category string, tags ...string) map[string]any {
	return map[string]any{
		"title":    title,
		"content":  "## " + title + "\n\nBody text.",
		"category": category,
		"tags":     tags,
	}
}

func TestCreateReport_RequiresAuthentication(t *testing.T) {
	ts := setupTestServer(t, "admin@example.com")

	resp := ts.api.Post("/api/v1/reports", reportBody("Unauthorized", "Development", "#Go"))
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	// Nothing was created.
	list := ts.api.Get("/api/v1/reports")
	var listing ListReportsResponse
	decodeBody(t, list, &listing)
	assert.Zero(t, listing.Total)
}

func TestCreateReport_SetsAuthorAndCanonicalTags(t *testing.T) {
	ts := setupTestServer(t, "admin@example.com")
	ts.login(t, "admin@example.com")

	report := ts.createReport(t, reportBody("Weekly Notes", "Development", "go", " #Docker "))

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "Manager", report.Author)
	assert.Equal(t, []string{"#go", "#Docker"}, report.Tags)
	assert.False(t, report.CreatedAt.IsZero())
}

func TestCreateReport_UnknownCategoryRejected(t *testing.T) {
	ts := setupTestServer(t, "admin@example.com")
	ts.login(t, "admin@example.com")

	resp := ts.api.Post("/api/v1/reports", reportBody("Bad", "Gardening", "#Go"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCreateReport_MissingTagsRejected(t *testing.T) {
	ts := setupTestServer(t, "admin@example.com")
	ts.login(t, "admin@example.com")

	resp := ts.api.Post("/api/v1/reports", map[string]any{
		"title":    "No Tags",
		"content":  "body",
		"category": "Development",
		"tags":     []string{},
	})
	assert.GreaterOrEqual(t, resp.Code, http.StatusBadRequest)
}

func TestListReports_FiltersComposeWithAND(t *testing.T) {
	ts := setupTestServer(t, "admin@example.com")
	ts.login(t, "admin@example.com")

	ts.createReport(t, reportBody("Go Networking", "Development", "#Go", "#Networking"))
	ts.createReport(t, reportBody("Go Tooling", "Development", "#Go"))
	ts.createReport(t, reportBody("K8s Intro", "Container", "#Kubernetes"))

	all := ts.api.Get("/api/v1/reports")
	var listing ListReportsResponse
	decodeBody(t, all, &listing)
	require.Equal(t, 3, listing.Total)
	// Most recent first.
	assert.Equal(t, "K8s Intro", listing.Reports[0].Title)

	byCategory := ts.api.Get("/api/v1/reports?category=Development")
	decodeBody(t, byCategory, &listing)
	assert.Equal(t, 2, listing.Total)

	both := ts.api.Get("/api/v1/reports?category=Development&tag=%23Networking")
	decodeBody(t, both, &listing)
	require.Equal(t, 1, listing.Total)
	assert.Equal(t, "Go Networking", listing.Reports[0].Title)

	// Tag matching ignores case and the marker is optional.
	loose := ts.api.Get("/api/v1/reports?tag=networking")
	decodeBody(t, loose, &listing)
	assert.Equal(t, 1, listing.Total)
}

func TestGetReport_IncludesRenderedHTML(t *testing.T) {
	ts := setupTestServer(t, "admin@example.com")
	ts.login(t, "admin@example.com")

	created := ts.createReport(t, map[string]any{
		"title":    "Dot List",
		"content":  "・first\n・second",
		"category": "Development",
		"tags":     []string{"#Go"},
	})

	resp := ts.api.Get("/api/v1/reports/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code)

	var report ReportResponse
	decodeBody(t, resp, &report)
	assert.Contains(t, report.ContentHTML, `class="report-markdown report-markdown--v7"`)
	assert.Contains(t, report.ContentHTML, `<ul class="dot-bullet-list">`)
	assert.Contains(t, report.ContentHTML, "<li>first</li>")

	variant := ts.api.Get("/api/v1/reports/" + created.ID + "?variant=compact")
	decodeBody(t, variant, &report)
	assert.Contains(t, report.ContentHTML, "report-markdown--compact")
}

func TestGetReport_NotFound(t *testing.T) {
	ts := setupTestServer(t, "admin@example.com")

	resp := ts.api.Get("/api/v1/reports/rpt-missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUpdateReport_PartialPatch(t *testing.T) {
	ts := setupTestServer(t, "admin@example.com")
	ts.login(t, "admin@example.com")

	created := ts.createReport(t, reportBody("Original", "Development", "#Go"))

	resp := ts.api.Patch("/api/v1/reports/"+created.ID, map[string]any{
		"title": "Renamed",
		"tags":  []string{"#Rust"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var updated ReportResponse
	decodeBody(t, resp, &updated)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, created.Content, updated.Content, "unpatched fields survive")
	assert.Equal(t, []string{"#Rust"}, updated.Tags, "tags replace the set in full")

	// The vocabulary follows the association change.
	tags := ts.api.Get("/api/v1/tags")
	var vocab TagsResponse
	decodeBody(t, tags, &vocab)
	assert.Contains(t, vocab.Tags, "#Rust")
	assert.NotContains(t, vocab.Tags, "#Go")
}

func TestUpdateReport_UnknownID(t *testing.T) {
	ts := setupTestServer(t, "admin@example.com")
	ts.login(t, "admin@example.com")

	resp := ts.api.Patch("/api/v1/reports/rpt-missing", map[string]any{
		"title": "Ghost",
	})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeleteReport_RemovesReport(t *testing.T) {
	ts := setupTestServer(t, "admin@example.com")
	ts.login(t, "admin@example.com")

	created := ts.createReport(t, reportBody("Doomed", "Development", "#Go"))

	resp := ts.api.Delete("/api/v1/reports/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code)

	gone := ts.api.Get("/api/v1/reports/" + created.ID)
	assert.Equal(t, http.StatusNotFound, gone.Code)
}

func TestListTags_DeduplicatedAcrossReports(t *testing.T) {
	ts := setupTestServer(t, "admin@example.com")
	ts.login(t, "admin@example.com")

	ts.createReport(t, reportBody("First", "Development", "#Go", "#Docker"))
	ts.createReport(t, reportBody("Second", "Container", "go", "#Kubernetes"))

	resp := ts.api.Get("/api/v1/tags")
	require.Equal(t, http.StatusOK, resp.Code)

	var vocab TagsResponse
	decodeBody(t, resp, &vocab)

	assert.Contains(t, vocab.Tags, "#Docker")
	assert.Contains(t, vocab.Tags, "#Kubernetes")

	// "#Go" and "go" collapse to a single vocabulary entry.
	var goForms int
	for _, tag := range vocab.Tags {
		if tag == "#Go" || tag == "#go" {
			goForms++
		}
	}
	assert.Equal(t, 1, goForms)
}
