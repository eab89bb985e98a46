package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns the current tag vocabulary in display form",
		Tags:        []string{"Tags"},
	}, s.handleListTags)
}

// TagsResponse contains the tag vocabulary.
type TagsResponse struct {
	Tags []string `json:"tags" doc:"Deduplicated display-form tags"`
}

// TagsOutput wraps the tags response for Huma.
type TagsOutput struct {
	Body TagsResponse
}

func (s *Server) handleListTags(_ context.Context, _ *struct{}) (*TagsOutput, error) {
	return &TagsOutput{Body: TagsResponse{Tags: s.state.Tags()}}, nil
}
