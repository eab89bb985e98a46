// Package identity implements the pluggable sign-in strategies.
// The local gateway mirrors the simulated browser flow; the token
// gateway is a full credential flow with PASETO access tokens.
package identity

import (
	"context"
	"time"

	"github.com/espressoapp/espresso-server/internal/domain"
)

// Session is the result of a successful sign-in.
// SessionID and the token fields are empty in local auth mode.
type Session struct {
	User         *domain.User
	SessionID    string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Gateway is the authentication strategy interface.
// One implementation is selected at startup from AUTH_MODE.
type Gateway interface {
	// SignIn authenticates the given credentials.
	// The returned error message is safe to surface to the caller verbatim.
	SignIn(ctx context.Context, email, secret string) (*Session, error)

	// FederatedSignInURL builds the provider authorize URL with the given
	// return address. Local mode returns ("", nil), a silent no-op.
	FederatedSignInURL(redirectTo string) (string, error)

	// CompleteFederated establishes a session for a provider-asserted
	// identity after the external flow finishes. The caller is
	// responsible for the allow-list check; the provider already did
	// the credential verification.
	CompleteFederated(ctx context.Context, email string) (*Session, error)

	// SignOut tears down the current session. Idempotent.
	SignOut(ctx context.Context) error

	// CurrentSession resolves the restored session, if any.
	// Returns (nil, nil) when nobody is signed in.
	CurrentSession(ctx context.Context) (*domain.User, error)
}

// Principal identifies the authenticated caller on a request context.
// The API middleware attaches it after verifying the access token or
// reading the local current-user record.
type Principal struct {
	User      *domain.User
	SessionID string
}

// ClientInfo carries transport-level facts about the caller, recorded
// on token-mode session rows.
type ClientInfo struct {
	ClientName string
	IPAddress  string
}

type contextKey int

const (
	principalKey contextKey = iota
	clientInfoKey
)

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom extracts the authenticated principal, if present.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// WithClientInfo returns a context carrying client transport facts.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey, info)
}

// ClientInfoFrom extracts client transport facts, if present.
func ClientInfoFrom(ctx context.Context) (ClientInfo, bool) {
	info, ok := ctx.Value(clientInfoKey).(ClientInfo)
	return info, ok
}
