package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/espressoapp/espresso-server/internal/errors"
	"github.com/espressoapp/espresso-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchReports",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search reports",
		Description: "Full-text search over title, summary, content and tags, in rank order",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// SearchInput contains search parameters.
type SearchInput struct {
	Query     string `query:"q" doc:"Search query, empty matches everything"`
	Category  string `query:"category" doc:"Category filter, AND-composed"`
	Tag       string `query:"tag" doc:"Tag filter, AND-composed"`
	Limit     int    `query:"limit" minimum:"1" maximum:"100" doc:"Page size (default 20)"`
	Offset    int    `query:"offset" minimum:"0" doc:"Page offset"`
	Highlight bool   `query:"highlight" doc:"Include match highlighting"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body search.SearchResult
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if s.search == nil {
		return nil, domainerrors.NotAllowed("search is not enabled")
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.Category = input.Category
	params.Tag = input.Tag
	params.Highlight = input.Highlight
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	if input.Offset > 0 {
		params.Offset = input.Offset
	}

	result, err := s.search.Search(ctx, params)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("search failed", "query", input.Query, "error", err)
		}
		return nil, domainerrors.Internal("search failed")
	}

	return &SearchOutput{Body: *result}, nil
}
