package identity

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/espressoapp/espresso-server/internal/auth"
	"github.com/espressoapp/espresso-server/internal/domain"
	domainerrors "github.com/espressoapp/espresso-server/internal/errors"
	"github.com/espressoapp/espresso-server/internal/id"
	"github.com/espressoapp/espresso-server/internal/sse"
	"github.com/espressoapp/espresso-server/internal/store"
)

// TokenGateway is the full credential flow: argon2id password hashes,
// PASETO v4.local access tokens, opaque refresh tokens, and session
// rows in the store.
type TokenGateway struct {
	store   store.Store
	tokens  *auth.TokenService
	emitter store.EventEmitter
	logger  *slog.Logger

	// Provider settings for the federated entry point.
	authorizeURL string
	siteURL      string
}

var _ Gateway = (*TokenGateway)(nil)

// NewTokenGateway creates the remote auth mode gateway.
func NewTokenGateway(s store.Store, tokens *auth.TokenService, emitter store.EventEmitter, logger *slog.Logger, authorizeURL, siteURL string) *TokenGateway {
	if emitter == nil {
		emitter = store.NewNoopEmitter()
	}
	return &TokenGateway{
		store:        s,
		tokens:       tokens,
		emitter:      emitter,
		logger:       logger,
		authorizeURL: authorizeURL,
		siteURL:      siteURL,
	}
}

// SignIn verifies credentials and opens a session.
// Lookup and verification failures collapse into one opaque message so
// the response does not reveal whether the account exists.
func (g *TokenGateway) SignIn(ctx context.Context, email, secret string) (*Session, error) {
	if email == "" || secret == "" {
		return nil, domainerrors.Validation("email and password are required")
	}

	user, err := g.store.GetUserByEmail(ctx, email)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to look up account")
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, secret)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to verify password")
	}
	if !ok {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	session, err := g.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	user.LastLoginAt = time.Now()
	if err := g.store.UpdateUser(ctx, user); err != nil && g.logger != nil {
		g.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}

	g.emitter.Emit(sse.NewSessionChangedEvent(user))

	if g.logger != nil {
		g.logger.Info("token sign-in", "email", user.Email, "user_id", user.ID)
	}
	return session, nil
}

// openSession mints the token pair and persists the session row.
func (g *TokenGateway) openSession(ctx context.Context, user *domain.User) (*Session, error) {
	accessToken, err := g.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to issue access token")
	}

	refreshToken, err := g.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to issue refresh token")
	}

	sessionID, err := id.Generate("sess")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate session id")
	}

	now := time.Now()
	sess := &domain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: auth.HashRefreshToken(refreshToken),
		ExpiresAt:        now.Add(g.tokens.RefreshTokenDuration()),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if info, ok := ClientInfoFrom(ctx); ok {
		sess.ClientName = info.ClientName
		sess.IPAddress = info.IPAddress
	}

	if err := g.store.CreateSession(ctx, sess); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to persist session")
	}

	return &Session{
		User:         user,
		SessionID:    sess.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(g.tokens.AccessTokenDuration()),
	}, nil
}

// Setup creates the first admin account and opens its session.
// Only available while no user exists; afterwards every sign-in goes
// through the credential flow.
func (g *TokenGateway) Setup(ctx context.Context, email, secret string) (*Session, error) {
	if email == "" || secret == "" {
		return nil, domainerrors.Validation("email and password are required")
	}

	exists, err := g.store.HasUsers(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to check setup status")
	}
	if exists {
		return nil, domainerrors.Conflict("server is already configured")
	}

	hash, err := auth.HashPassword(secret)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to hash password")
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate user id")
	}

	user := &domain.User{
		Syncable:     domain.Syncable{ID: userID},
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		LastLoginAt:  time.Now(),
	}
	user.InitTimestamps()

	if err := g.store.CreateUser(ctx, user); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to create account")
	}

	session, err := g.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	g.emitter.Emit(sse.NewSessionChangedEvent(user))

	if g.logger != nil {
		g.logger.Info("first admin configured", "email", user.Email, "user_id", user.ID)
	}
	return session, nil
}

// CompleteFederated resolves the provider-asserted email to a local
// account, provisioning one on first sign-in, and opens a session.
func (g *TokenGateway) CompleteFederated(ctx context.Context, email string) (*Session, error) {
	if email == "" {
		return nil, domainerrors.Validation("email is required")
	}

	user, err := g.store.GetUserByEmail(ctx, email)
	if err != nil {
		if !store.IsNotFound(err) {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to look up account")
		}

		userID, err := id.Generate("user")
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to generate user id")
		}

		// Federated accounts carry no password hash, so the
		// credential flow stays closed for them.
		user = &domain.User{
			Syncable: domain.Syncable{ID: userID},
			Email:    email,
			Role:     domain.RoleAdmin,
		}
		user.InitTimestamps()

		if err := g.store.CreateUser(ctx, user); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to provision account")
		}
	}

	session, err := g.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	user.LastLoginAt = time.Now()
	if err := g.store.UpdateUser(ctx, user); err != nil && g.logger != nil {
		g.logger.Warn("failed to record last login", "user_id", user.ID, "error", err)
	}

	g.emitter.Emit(sse.NewSessionChangedEvent(user))

	if g.logger != nil {
		g.logger.Info("federated sign-in", "email", user.Email, "user_id", user.ID)
	}
	return session, nil
}

// Refresh rotates a refresh token and mints a new access token.
func (g *TokenGateway) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	hash := auth.HashRefreshToken(refreshToken)

	sess, err := g.store.GetSessionByRefreshToken(ctx, hash)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, domainerrors.Unauthorized("invalid refresh token")
		}
		if err == store.ErrSessionExpired {
			return nil, domainerrors.TokenExpired("session expired")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to look up session")
	}

	user, err := g.store.GetUser(ctx, sess.UserID)
	if err != nil {
		return nil, domainerrors.Unauthorized("session user no longer exists")
	}

	accessToken, err := g.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to issue access token")
	}

	newRefresh, err := g.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to issue refresh token")
	}

	sess.RefreshTokenHash = auth.HashRefreshToken(newRefresh)
	sess.ExpiresAt = time.Now().Add(g.tokens.RefreshTokenDuration())
	sess.Touch()
	if err := g.store.UpdateSession(ctx, sess); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to rotate session")
	}

	return &Session{
		User:         user,
		SessionID:    sess.ID,
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    time.Now().Add(g.tokens.AccessTokenDuration()),
	}, nil
}

// VerifyAccess validates an access token and loads its user.
// Used by the API middleware to build the request principal.
func (g *TokenGateway) VerifyAccess(ctx context.Context, token string) (*domain.User, error) {
	claims, err := g.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, domainerrors.Unauthorized("invalid or expired token")
	}

	user, err := g.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, domainerrors.Unauthorized("token user no longer exists")
	}
	return user, nil
}

// FederatedSignInURL builds the provider authorize URL with the
// configured return address appended as redirect_uri.
func (g *TokenGateway) FederatedSignInURL(redirectTo string) (string, error) {
	if g.authorizeURL == "" {
		return "", domainerrors.NotAllowed("no federated provider configured")
	}

	u, err := url.Parse(g.authorizeURL)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "invalid provider authorize URL")
	}

	q := u.Query()
	q.Set("redirect_uri", g.siteURL+redirectTo)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// SignOut deletes the caller's session row. Idempotent; a missing
// principal or session is not an error.
func (g *TokenGateway) SignOut(ctx context.Context) error {
	p, ok := PrincipalFrom(ctx)
	if !ok || p.SessionID == "" {
		return nil
	}

	if err := g.store.DeleteSession(ctx, p.SessionID); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to delete session")
	}

	g.emitter.Emit(sse.NewSessionChangedEvent(nil))
	return nil
}

// CurrentSession resolves the principal attached by the API middleware.
// Returns (nil, nil) when the request is anonymous.
func (g *TokenGateway) CurrentSession(ctx context.Context) (*domain.User, error) {
	p, ok := PrincipalFrom(ctx)
	if !ok {
		return nil, nil
	}
	return p.User, nil
}
