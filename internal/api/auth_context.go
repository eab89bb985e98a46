package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/espressoapp/espresso-server/internal/domain"
	"github.com/espressoapp/espresso-server/internal/identity"
)

// RequireUser returns the authenticated user from the request
// context. Mutating operations call this first; reads are public.
// Returns 401 when the caller is anonymous, which is the login
// boundary for unauthenticated mutation attempts.
func (s *Server) RequireUser(ctx context.Context) (*domain.User, error) {
	p, ok := identity.PrincipalFrom(ctx)
	if !ok || p.User == nil {
		return nil, huma.Error401Unauthorized("Authentication required")
	}
	return p.User, nil
}
