package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/espressoapp/espresso-server/internal/domain"
	domainerrors "github.com/espressoapp/espresso-server/internal/errors"
	"github.com/espressoapp/espresso-server/internal/state"
)

func (s *Server) registerReportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listReports",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports",
		Summary:     "List reports",
		Description: "Returns reports most-recent-first, optionally narrowed by category and tag. Both filters must match when both are given.",
		Tags:        []string{"Reports"},
	}, s.handleListReports)

	huma.Register(s.api, huma.Operation{
		OperationID: "getReport",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/{id}",
		Summary:     "Get report",
		Description: "Returns a report with its rendered HTML",
		Tags:        []string{"Reports"},
	}, s.handleGetReport)

	huma.Register(s.api, huma.Operation{
		OperationID: "createReport",
		Method:      http.MethodPost,
		Path:        "/api/v1/reports",
		Summary:     "Create report",
		Description: "Creates a report. Requires an authenticated operator.",
		Tags:        []string{"Reports"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateReport)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateReport",
		Method:      http.MethodPatch,
		Path:        "/api/v1/reports/{id}",
		Summary:     "Update report",
		Description: "Partially updates a report. A tags field replaces the tag associations in full.",
		Tags:        []string{"Reports"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateReport)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteReport",
		Method:      http.MethodDelete,
		Path:        "/api/v1/reports/{id}",
		Summary:     "Delete report",
		Description: "Deletes a report. Requires an authenticated operator.",
		Tags:        []string{"Reports"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteReport)
}

// === DTOs ===

// ReportResponse contains report data in API responses.
type ReportResponse struct {
	ID          string    `json:"id" doc:"Report ID"`
	Title       string    `json:"title" doc:"Report title"`
	Summary     string    `json:"summary,omitempty" doc:"Short summary"`
	Content     string    `json:"content" doc:"Markdown source"`
	ContentHTML string    `json:"content_html,omitempty" doc:"Rendered, sanitized HTML"`
	Category    string    `json:"category" doc:"Report category"`
	Author      string    `json:"author" doc:"Author display name"`
	PublishDate string    `json:"publish_date,omitempty" doc:"Free-form publish date"`
	Tags        []string  `json:"tags" doc:"Display-form tags"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last update time"`
}

// ListReportsInput contains filter parameters for listing reports.
type ListReportsInput struct {
	Category string `query:"category" doc:"Category filter"`
	Tag      string `query:"tag" doc:"Tag filter, marker optional"`
}

// ListReportsResponse contains a list of reports.
type ListReportsResponse struct {
	Reports []ReportResponse `json:"reports" doc:"Matching reports, most recent first"`
	Total   int              `json:"total" doc:"Number of matching reports"`
}

// ListReportsOutput wraps the list response for Huma.
type ListReportsOutput struct {
	Body ListReportsResponse
}

// GetReportInput contains parameters for getting a report.
type GetReportInput struct {
	ID      string `path:"id" doc:"Report ID"`
	Variant string `query:"variant" doc:"Visual variant for the rendered HTML"`
}

// ReportOutput wraps a single report response for Huma.
type ReportOutput struct {
	Body ReportResponse
}

// CreateReportRequest is the request body for creating a report.
type CreateReportRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=200" doc:"Report title"`
	Content     string   `json:"content" validate:"required" doc:"Markdown source"`
	Summary     string   `json:"summary,omitempty" validate:"omitempty,max=500" doc:"Short summary"`
	Category    string   `json:"category" validate:"required" doc:"Report category"`
	PublishDate string   `json:"publish_date,omitempty" validate:"omitempty,max=40" doc:"Free-form publish date"`
	Tags        []string `json:"tags" validate:"required,min=1" doc:"Tags, raw form accepted"`
}

// CreateReportInput wraps the create request for Huma.
type CreateReportInput struct {
	Body CreateReportRequest
}

// UpdateReportRequest is the request body for a partial update.
type UpdateReportRequest struct {
	Title       *string  `json:"title,omitempty" validate:"omitempty,min=1,max=200" doc:"Report title"`
	Content     *string  `json:"content,omitempty" doc:"Markdown source"`
	Summary     *string  `json:"summary,omitempty" validate:"omitempty,max=500" doc:"Short summary"`
	Category    *string  `json:"category,omitempty" doc:"Report category"`
	PublishDate *string  `json:"publish_date,omitempty" validate:"omitempty,max=40" doc:"Free-form publish date"`
	Tags        []string `json:"tags,omitempty" doc:"Full replacement tag set"`
}

// UpdateReportInput wraps the update request for Huma.
type UpdateReportInput struct {
	ID   string `path:"id" doc:"Report ID"`
	Body UpdateReportRequest
}

// DeleteReportInput contains parameters for deleting a report.
type DeleteReportInput struct {
	ID string `path:"id" doc:"Report ID"`
}

// === Handlers ===

func (s *Server) handleListReports(_ context.Context, input *ListReportsInput) (*ListReportsOutput, error) {
	reports := s.state.FilteredReports(input.Category, input.Tag)

	resp := make([]ReportResponse, len(reports))
	for i, r := range reports {
		resp[i] = mapReport(r, "")
	}

	return &ListReportsOutput{Body: ListReportsResponse{Reports: resp, Total: len(resp)}}, nil
}

func (s *Server) handleGetReport(ctx context.Context, input *GetReportInput) (*ReportOutput, error) {
	report, err := s.store.GetReport(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	html, err := s.renderer.RenderVariant(report.Content, input.Variant)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to render report", "report_id", report.ID, "error", err)
		}
		html = ""
	}

	out := &ReportOutput{Body: mapReport(report, html)}
	return out, nil
}

func (s *Server) handleCreateReport(ctx context.Context, input *CreateReportInput) (*ReportOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	if !domain.ValidCategory(input.Body.Category) {
		return nil, domainerrors.Validation("unknown category")
	}

	report := s.state.AddReport(ctx, state.ReportDraft{
		Title:       input.Body.Title,
		Content:     input.Body.Content,
		Summary:     input.Body.Summary,
		Category:    input.Body.Category,
		Author:      user.Name(),
		PublishDate: input.Body.PublishDate,
		Tags:        input.Body.Tags,
	})
	if report == nil {
		return nil, domainerrors.Internal("failed to save report")
	}

	return &ReportOutput{Body: mapReport(report, "")}, nil
}

func (s *Server) handleUpdateReport(ctx context.Context, input *UpdateReportInput) (*ReportOutput, error) {
	if _, err := s.RequireUser(ctx); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}
	if input.Body.Category != nil && !domain.ValidCategory(*input.Body.Category) {
		return nil, domainerrors.Validation("unknown category")
	}

	report := s.state.UpdateReport(ctx, input.ID, state.ReportPatch{
		Title:       input.Body.Title,
		Content:     input.Body.Content,
		Summary:     input.Body.Summary,
		Category:    input.Body.Category,
		PublishDate: input.Body.PublishDate,
		Tags:        input.Body.Tags,
	})
	if report == nil {
		return nil, domainerrors.NotFound("report not found")
	}

	return &ReportOutput{Body: mapReport(report, "")}, nil
}

func (s *Server) handleDeleteReport(ctx context.Context, input *DeleteReportInput) (*MessageOutput, error) {
	if _, err := s.RequireUser(ctx); err != nil {
		return nil, err
	}

	s.state.DeleteReport(ctx, input.ID)
	return &MessageOutput{Body: MessageResponse{Message: "Report deleted"}}, nil
}

// === Helpers ===

func mapReport(r *domain.Report, html string) ReportResponse {
	return ReportResponse{
		ID:          r.ID,
		Title:       r.Title,
		Summary:     r.Summary,
		Content:     r.Content,
		ContentHTML: html,
		Category:    r.Category,
		Author:      r.Author,
		PublishDate: r.PublishDate,
		Tags:        r.Tags,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
