package api

import (
	"net/http"
	"strings"

	"github.com/espressoapp/espresso-server/internal/identity"
	"github.com/espressoapp/espresso-server/internal/store"
)

// principalMiddleware resolves the caller's identity and attaches it
// to the request context. Token mode reads a Bearer access token;
// local mode reads the persisted current-user record. An absent or
// invalid identity continues anonymously; handlers that need a user
// reject through RequireUser.
func (s *Server) principalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		switch g := s.gateway.(type) {
		case *identity.TokenGateway:
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				break
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")

			user, err := g.VerifyAccess(ctx, token)
			if err != nil {
				// Invalid token continues anonymously.
				break
			}
			ctx = identity.WithPrincipal(ctx, identity.Principal{User: user})

		default:
			user, err := s.store.CurrentUser(ctx)
			if err != nil {
				if !store.IsNotFound(err) && s.logger != nil {
					s.logger.Warn("failed to read current user", "error", err)
				}
				break
			}
			ctx = identity.WithPrincipal(ctx, identity.Principal{User: user})
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientInfoMiddleware records transport facts used on token-mode
// session rows.
func clientInfoMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := identity.WithClientInfo(r.Context(), identity.ClientInfo{
			ClientName: r.UserAgent(),
			IPAddress:  getClientIP(r),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// Take first IP in the chain.
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// Fall back to RemoteAddr (strip port).
	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}
