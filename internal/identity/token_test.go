package identity

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/espressoapp/espresso-server/internal/auth"
	"github.com/espressoapp/espresso-server/internal/domain"
	"github.com/espressoapp/espresso-server/internal/id"
	"github.com/espressoapp/espresso-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTokenGateway(t *testing.T) (*TokenGateway, store.Store) {
	t.Helper()

	s := newTestStore(t)
	tokens, err := auth.NewTokenService(testKeyHex, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	g := NewTokenGateway(s, tokens, nil, nil, "https://provider.example.com/authorize", "https://espresso.example.com")
	return g, s
}

func seedAccount(t *testing.T, s store.Store, email, password string) *domain.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	require.NoError(t, err)

	user := &domain.User{
		Syncable: domain.Syncable{ID: id.MustGenerate("user")},
		Username: "Manager",
		Email:    email,
		Role:     domain.RoleAdmin,
	}
	user.PasswordHash = hash
	user.InitTimestamps()
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func TestTokenGateway_SignIn(t *testing.T) {
	g, s := newTokenGateway(t)
	ctx := context.Background()
	seedAccount(t, s, "admin@example.com", "correct horse")

	sess, err := g.SignIn(ctx, "admin@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)
	assert.Equal(t, "admin@example.com", sess.User.Email)

	// Access token round-trips through verification.
	user, err := g.VerifyAccess(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, user.ID)
}

func TestTokenGateway_SignIn_OpaqueFailures(t *testing.T) {
	g, s := newTokenGateway(t)
	ctx := context.Background()
	seedAccount(t, s, "admin@example.com", "correct horse")

	// Unknown account and wrong password read identically.
	_, errUnknown := g.SignIn(ctx, "nobody@example.com", "whatever")
	require.Error(t, errUnknown)
	_, errWrong := g.SignIn(ctx, "admin@example.com", "wrong")
	require.Error(t, errWrong)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestTokenGateway_Setup_BootstrapsFirstAdmin(t *testing.T) {
	g, _ := newTokenGateway(t)
	ctx := context.Background()

	// An empty store has no account to sign in with.
	_, err := g.SignIn(ctx, "admin@example.com", "correct horse")
	require.Error(t, err)

	sess, err := g.Setup(ctx, "admin@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)
	assert.Equal(t, domain.RoleAdmin, sess.User.Role)

	// The created credentials work like any other account.
	again, err := g.SignIn(ctx, "admin@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, again.User.ID)
}

func TestTokenGateway_Setup_OnlyOnce(t *testing.T) {
	g, _ := newTokenGateway(t)
	ctx := context.Background()

	_, err := g.Setup(ctx, "admin@example.com", "correct horse")
	require.NoError(t, err)

	_, err = g.Setup(ctx, "other@example.com", "another secret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already configured")
}

func TestTokenGateway_CompleteFederated_ProvisionsAccount(t *testing.T) {
	g, s := newTokenGateway(t)
	ctx := context.Background()

	sess, err := g.CompleteFederated(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)

	// The token pair resolves back to the provisioned account.
	user, err := g.VerifyAccess(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, user.ID)

	// No password hash means the credential flow stays closed.
	stored, err := s.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Empty(t, stored.PasswordHash)
	_, err = g.SignIn(ctx, "admin@example.com", "any guess")
	assert.Error(t, err)
}

func TestTokenGateway_CompleteFederated_ReusesAccount(t *testing.T) {
	g, s := newTokenGateway(t)
	ctx := context.Background()
	user := seedAccount(t, s, "admin@example.com", "correct horse")

	sess, err := g.CompleteFederated(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, sess.User.ID)
}

func TestTokenGateway_Refresh_Rotates(t *testing.T) {
	g, s := newTokenGateway(t)
	ctx := context.Background()
	seedAccount(t, s, "admin@example.com", "correct horse")

	sess, err := g.SignIn(ctx, "admin@example.com", "correct horse")
	require.NoError(t, err)

	refreshed, err := g.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, sess.RefreshToken, refreshed.RefreshToken)

	// The old refresh token is burned.
	_, err = g.Refresh(ctx, sess.RefreshToken)
	assert.Error(t, err)
}

func TestTokenGateway_SignOut(t *testing.T) {
	g, s := newTokenGateway(t)
	ctx := context.Background()
	user := seedAccount(t, s, "admin@example.com", "correct horse")

	sess, err := g.SignIn(ctx, "admin@example.com", "correct horse")
	require.NoError(t, err)

	// Find the session row so SignOut has a principal to act on.
	stored, err := s.GetSessionByRefreshToken(ctx, auth.HashRefreshToken(sess.RefreshToken))
	require.NoError(t, err)

	authed := WithPrincipal(ctx, Principal{User: user, SessionID: stored.ID})
	require.NoError(t, g.SignOut(authed))

	_, err = g.Refresh(ctx, sess.RefreshToken)
	assert.Error(t, err)

	// Without a principal, SignOut is a no-op.
	assert.NoError(t, g.SignOut(ctx))
}

func TestTokenGateway_FederatedSignInURL(t *testing.T) {
	g, _ := newTokenGateway(t)

	url, err := g.FederatedSignInURL("/auth/callback")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://provider.example.com/authorize?"))
	assert.Contains(t, url, "redirect_uri=https%3A%2F%2Fespresso.example.com%2Fauth%2Fcallback")
}

func TestTokenGateway_FederatedSignInURL_Unconfigured(t *testing.T) {
	g, _ := newTokenGateway(t)
	g.authorizeURL = ""

	_, err := g.FederatedSignInURL("/auth/callback")
	assert.Error(t, err)
}

func TestTokenGateway_CurrentSession(t *testing.T) {
	g, s := newTokenGateway(t)
	ctx := context.Background()
	user := seedAccount(t, s, "admin@example.com", "correct horse")

	// Anonymous context has no session.
	current, err := g.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	authed := WithPrincipal(ctx, Principal{User: user, SessionID: "sess-x"})
	current, err = g.CurrentSession(authed)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, user.ID, current.ID)
}
