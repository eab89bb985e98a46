package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/espressoapp/espresso-server/internal/markdown"
)

func (s *Server) registerRenderRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "renderPreview",
		Method:      http.MethodPost,
		Path:        "/api/v1/render",
		Summary:     "Render markdown preview",
		Description: "Renders markdown to sanitized HTML for the editor preview",
		Tags:        []string{"Render"},
	}, s.handleRenderPreview)

	huma.Register(s.api, huma.Operation{
		OperationID: "importHTML",
		Method:      http.MethodPost,
		Path:        "/api/v1/render/import",
		Summary:     "Import HTML as markdown",
		Description: "Converts pasted HTML into markdown for the editor",
		Tags:        []string{"Render"},
	}, s.handleImportHTML)
}

// RenderRequest is the request body for a markdown preview.
type RenderRequest struct {
	Content string `json:"content" doc:"Markdown source"`
	Variant string `json:"variant,omitempty" doc:"Visual variant for the wrapper class"`
}

// RenderInput wraps the render request for Huma.
type RenderInput struct {
	Body RenderRequest
}

// RenderResponse contains rendered HTML.
type RenderResponse struct {
	HTML string `json:"html" doc:"Sanitized HTML"`
}

// RenderOutput wraps the render response for Huma.
type RenderOutput struct {
	Body RenderResponse
}

// ImportRequest is the request body for an HTML import.
type ImportRequest struct {
	HTML string `json:"html" doc:"Pasted HTML"`
}

// ImportInput wraps the import request for Huma.
type ImportInput struct {
	Body ImportRequest
}

// ImportResponse contains the converted markdown.
type ImportResponse struct {
	Markdown string `json:"markdown" doc:"Converted markdown"`
}

// ImportOutput wraps the import response for Huma.
type ImportOutput struct {
	Body ImportResponse
}

func (s *Server) handleRenderPreview(_ context.Context, input *RenderInput) (*RenderOutput, error) {
	html, err := s.renderer.RenderVariant(input.Body.Content, input.Body.Variant)
	if err != nil {
		return nil, err
	}
	return &RenderOutput{Body: RenderResponse{HTML: html}}, nil
}

func (s *Server) handleImportHTML(_ context.Context, input *ImportInput) (*ImportOutput, error) {
	return &ImportOutput{Body: ImportResponse{Markdown: markdown.FromHTML(input.Body.HTML)}}, nil
}
