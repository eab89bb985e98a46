package identity

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/espressoapp/espresso-server/internal/domain"
	"github.com/espressoapp/espresso-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	dir := t.TempDir()
	s, err := store.New(filepath.Join(dir, "test.db"), nil, store.NewNoopEmitter())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
		_ = os.RemoveAll(dir)
	})
	return s
}

func TestLocalGateway_SignIn(t *testing.T) {
	s := newTestStore(t)
	g := NewLocalGateway(s, nil, nil)
	ctx := context.Background()

	sess, err := g.SignIn(ctx, "admin@example.com", "anything")
	require.NoError(t, err)
	require.NotNil(t, sess.User)
	assert.Equal(t, domain.LocalUserID, sess.User.ID)
	assert.Equal(t, domain.LocalUsername, sess.User.Username)
	assert.Equal(t, "admin@example.com", sess.User.Email)
	assert.Empty(t, sess.AccessToken)

	// Session survives a restart: the record is in the store.
	current, err := g.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "admin@example.com", current.Email)
}

func TestLocalGateway_SignIn_EmptyCredentials(t *testing.T) {
	g := NewLocalGateway(newTestStore(t), nil, nil)
	ctx := context.Background()

	_, err := g.SignIn(ctx, "", "secret")
	assert.Error(t, err)

	_, err = g.SignIn(ctx, "admin@example.com", "")
	assert.Error(t, err)
}

func TestLocalGateway_SignOut(t *testing.T) {
	g := NewLocalGateway(newTestStore(t), nil, nil)
	ctx := context.Background()

	_, err := g.SignIn(ctx, "admin@example.com", "anything")
	require.NoError(t, err)

	require.NoError(t, g.SignOut(ctx))

	current, err := g.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	// Idempotent
	assert.NoError(t, g.SignOut(ctx))
}

func TestLocalGateway_CompleteFederated_PersistsSession(t *testing.T) {
	s := newTestStore(t)
	g := NewLocalGateway(s, nil, nil)
	ctx := context.Background()

	sess, err := g.CompleteFederated(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", sess.User.Email)

	// The operator record lands in the store so later requests
	// resolve the same identity.
	current, err := s.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "admin@example.com", current.Email)
}

func TestLocalGateway_CompleteFederated_EmptyEmail(t *testing.T) {
	g := NewLocalGateway(newTestStore(t), nil, nil)

	_, err := g.CompleteFederated(context.Background(), "")
	assert.Error(t, err)
}

func TestLocalGateway_FederatedSignInURL_NoOp(t *testing.T) {
	g := NewLocalGateway(newTestStore(t), nil, nil)

	url, err := g.FederatedSignInURL("/auth/callback")
	require.NoError(t, err)
	assert.Empty(t, url)
}
