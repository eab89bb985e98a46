package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/espressoapp/espresso-server/internal/auth"
	"github.com/espressoapp/espresso-server/internal/domain"
	domainerrors "github.com/espressoapp/espresso-server/internal/errors"
	"github.com/espressoapp/espresso-server/internal/identity"
	"github.com/espressoapp/espresso-server/internal/store"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "setup",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/setup",
		Summary:     "Initial server setup",
		Description: "Creates the first admin account. Token auth mode only; can only be called once.",
		Tags:        []string{"Authentication"},
	}, s.handleSetup)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Sign in",
		Description: "Authenticates the operator. Token auth mode returns an access and refresh token pair.",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "federatedSignIn",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/federated",
		Summary:     "Start federated sign-in",
		Description: "Returns the provider authorize URL for a redirect-based external sign-in",
		Tags:        []string{"Authentication"},
	}, s.handleFederatedSignIn)

	huma.Register(s.api, huma.Operation{
		OperationID: "federatedCallback",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/callback",
		Summary:     "Complete federated sign-in",
		Description: "Applies the provider-asserted identity after the external flow finishes",
		Tags:        []string{"Authentication"},
	}, s.handleFederatedCallback)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh tokens",
		Description: "Exchanges a refresh token for a new token pair. Token auth mode only.",
		Tags:        []string{"Authentication"},
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Sign out",
		Description: "Clears the current session. Idempotent.",
		Tags:        []string{"Authentication"},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "currentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Current user",
		Description: "Returns the signed-in user, or null when anonymous",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCurrentUser)
}

// === DTOs ===

// SetupRequest is the request body for initial server setup.
type SetupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254" doc:"Admin email address"`
	Password string `json:"password" validate:"required,min=8,max=1024" doc:"Admin password"`
}

// SetupInput wraps the setup request for Huma.
type SetupInput struct {
	Body SetupRequest
}

// LoginRequest is the request body for sign-in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254" doc:"Operator email"`
	Password string `json:"password" validate:"required,max=1024" doc:"Operator secret"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// UserResponse contains user information in auth responses.
type UserResponse struct {
	ID          string    `json:"id" doc:"User ID"`
	Username    string    `json:"username" doc:"Display name"`
	Email       string    `json:"email" doc:"User email"`
	Role        string    `json:"role" doc:"Permission level"`
	LastLoginAt time.Time `json:"last_login_at" doc:"Last login timestamp"`
}

// AuthResponse contains session data after a successful sign-in.
// The token fields are empty in local auth mode.
type AuthResponse struct {
	AccessToken  string       `json:"access_token,omitempty" doc:"PASETO access token"`
	RefreshToken string       `json:"refresh_token,omitempty" doc:"Opaque refresh token"`
	TokenType    string       `json:"token_type,omitempty" doc:"Token type (Bearer)"`
	ExpiresIn    int          `json:"expires_in,omitempty" doc:"Access token expiry in seconds"`
	User         UserResponse `json:"user" doc:"Authenticated user"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// FederatedSignInResponse carries the provider authorize URL.
type FederatedSignInResponse struct {
	URL string `json:"url" doc:"Provider authorize URL, empty in local auth mode"`
}

// FederatedSignInOutput wraps the federated response for Huma.
type FederatedSignInOutput struct {
	Body FederatedSignInResponse
}

// FederatedCallbackRequest is the provider-asserted identity posted
// after the external flow completes.
type FederatedCallbackRequest struct {
	Email string `json:"email" validate:"required,email,max=254" doc:"Provider-asserted email"`
}

// FederatedCallbackInput wraps the callback request for Huma.
type FederatedCallbackInput struct {
	Body FederatedCallbackRequest
}

// RefreshRequest is the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" doc:"Refresh token"`
}

// RefreshInput wraps the refresh request for Huma.
type RefreshInput struct {
	Body RefreshRequest
}

// LogoutRequest optionally carries the refresh token so the matching
// session row can be revoked in token auth mode.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token,omitempty" doc:"Refresh token of the session to revoke"`
}

// LogoutInput wraps the logout request for Huma.
type LogoutInput struct {
	Body LogoutRequest
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// CurrentUserResponse contains the resolved session user.
type CurrentUserResponse struct {
	User *UserResponse `json:"user" doc:"Signed-in user, null when anonymous"`
}

// CurrentUserOutput wraps the current user response for Huma.
type CurrentUserOutput struct {
	Body CurrentUserResponse
}

// === Handlers ===

func (s *Server) handleSetup(ctx context.Context, input *SetupInput) (*AuthOutput, error) {
	g, ok := s.gateway.(*identity.TokenGateway)
	if !ok {
		return nil, domainerrors.NotAllowed("setup is not required in local auth mode")
	}

	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	// The allow-list gates the first admin the same way it gates
	// every later sign-in.
	if !s.cfg.AllowsEmail(input.Body.Email) {
		return nil, domainerrors.NotAllowed("account is not permitted to sign in")
	}

	sess, err := g.Setup(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, err
	}

	s.state.ApplySessionChange(ctx, sess.User)
	return &AuthOutput{Body: mapAuthResponse(sess)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	if key := loginLimiterKey(ctx); !s.loginLimiter.Allow(key) {
		if s.logger != nil {
			s.logger.Warn("login rate limit exceeded", "ip", key)
		}
		return nil, huma.Error429TooManyRequests("Too many login attempts. Please try again later.")
	}

	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	sess, err := s.state.Login(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, err
	}

	return &AuthOutput{Body: mapAuthResponse(sess)}, nil
}

func (s *Server) handleFederatedSignIn(ctx context.Context, _ *struct{}) (*FederatedSignInOutput, error) {
	url, err := s.state.LoginWithProvider(ctx)
	if err != nil {
		return nil, err
	}
	return &FederatedSignInOutput{Body: FederatedSignInResponse{URL: url}}, nil
}

func (s *Server) handleFederatedCallback(ctx context.Context, input *FederatedCallbackInput) (*AuthOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	// The allow-list is the only server-side gate on the asserted
	// identity; the provider did the credential verification.
	if !s.cfg.AllowsEmail(input.Body.Email) {
		return nil, domainerrors.NotAllowed("account is not permitted to sign in")
	}

	// The gateway persists the session (operator record in local
	// mode, session row plus token pair in token mode) so later
	// requests resolve the identity like any other sign-in.
	sess, err := s.gateway.CompleteFederated(ctx, input.Body.Email)
	if err != nil {
		return nil, err
	}

	s.state.ApplySessionChange(ctx, sess.User)
	return &AuthOutput{Body: mapAuthResponse(sess)}, nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*AuthOutput, error) {
	g, ok := s.gateway.(*identity.TokenGateway)
	if !ok {
		return nil, domainerrors.NotAllowed("token refresh is not available in local auth mode")
	}

	sess, err := g.Refresh(ctx, input.Body.RefreshToken)
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: mapAuthResponse(sess)}, nil
}

func (s *Server) handleLogout(ctx context.Context, input *LogoutInput) (*MessageOutput, error) {
	// In token mode the session row is found through the refresh
	// token so SignOut can revoke it.
	if input.Body.RefreshToken != "" {
		if p, sessID, ok := s.resolveRefreshSession(ctx, input.Body.RefreshToken); ok {
			ctx = identity.WithPrincipal(ctx, identity.Principal{User: p, SessionID: sessID})
		}
	}

	s.state.Logout(ctx)
	return &MessageOutput{Body: MessageResponse{Message: "Signed out"}}, nil
}

func (s *Server) handleCurrentUser(ctx context.Context, _ *struct{}) (*CurrentUserOutput, error) {
	user, err := s.gateway.CurrentSession(ctx)
	if err != nil {
		return nil, err
	}
	return &CurrentUserOutput{Body: CurrentUserResponse{User: mapUser(user)}}, nil
}

// === Helpers ===

// resolveRefreshSession looks up the session row matching a refresh
// token. Best-effort: failures fall back to an anonymous sign-out.
func (s *Server) resolveRefreshSession(ctx context.Context, refreshToken string) (*domain.User, string, bool) {
	sess, err := s.store.GetSessionByRefreshToken(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if !store.IsNotFound(err) && s.logger != nil {
			s.logger.Warn("failed to resolve session for logout", "error", err)
		}
		return nil, "", false
	}

	user, err := s.store.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, "", false
	}
	return user, sess.ID, true
}

func loginLimiterKey(ctx context.Context) string {
	if info, ok := identity.ClientInfoFrom(ctx); ok && info.IPAddress != "" {
		return info.IPAddress
	}
	return "unknown"
}

func mapAuthResponse(sess *identity.Session) AuthResponse {
	resp := AuthResponse{User: *mapUser(sess.User)}
	if sess.AccessToken != "" {
		resp.AccessToken = sess.AccessToken
		resp.RefreshToken = sess.RefreshToken
		resp.TokenType = "Bearer"
		resp.ExpiresIn = int(time.Until(sess.ExpiresAt).Seconds())
	}
	return resp
}

func mapUser(u *domain.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        string(u.Role),
		LastLoginAt: u.LastLoginAt,
	}
}
