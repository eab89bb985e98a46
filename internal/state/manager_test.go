package state

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/espressoapp/espresso-server/internal/config"
	"github.com/espressoapp/espresso-server/internal/domain"
	"github.com/espressoapp/espresso-server/internal/identity"
	"github.com/espressoapp/espresso-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type navCall struct {
	target   string
	reportID string
	reason   string
}

// recordingNavigator captures navigation intents for assertions.
type recordingNavigator struct {
	mu    sync.Mutex
	calls []navCall
}

func (n *recordingNavigator) ToListing() {
	n.record(navCall{target: TargetListing})
}

func (n *recordingNavigator) ToDetail(reportID string) {
	n.record(navCall{target: TargetDetail, reportID: reportID})
}

func (n *recordingNavigator) ToLogin(reason string) {
	n.record(navCall{target: TargetLogin, reason: reason})
}

func (n *recordingNavigator) record(c navCall) {
	n.mu.Lock()
	n.calls = append(n.calls, c)
	n.mu.Unlock()
}

func (n *recordingNavigator) last() (navCall, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.calls) == 0 {
		return navCall{}, false
	}
	return n.calls[len(n.calls)-1], true
}

func (n *recordingNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func testConfig(allowed ...string) *config.Config {
	cfg := &config.Config{}
	cfg.Auth.AdminEmails = allowed
	return cfg
}

func newTestBackends(t *testing.T) (store.Store, identity.Gateway) {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), nil, store.NewNoopEmitter())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, identity.NewLocalGateway(s, nil, nil)
}

func newTestManager(t *testing.T, allowed ...string) (*Manager, *recordingNavigator) {
	t.Helper()

	s, g := newTestBackends(t)
	nav := &recordingNavigator{}
	return NewManager(s, g, testConfig(allowed...), nav, nil), nav
}

func seedReport(t *testing.T, m *Manager, title, category string, tags ...string) *domain.Report {
	t.Helper()

	report := m.AddReport(context.Background(), ReportDraft{
		Title:    title,
		Content:  "content of " + title,
		Category: category,
		Author:   "admin@example.com",
		Tags:     tags,
	})
	require.NotNil(t, report)
	return report
}

func TestHydrationGating(t *testing.T) {
	m, _ := newTestManager(t, "admin@example.com")
	ctx := context.Background()

	// Before Initialize everything reads as zero-value state.
	assert.False(t, m.Hydrated())
	assert.Empty(t, m.Reports())
	assert.Empty(t, m.Tags())
	assert.Nil(t, m.CurrentUser())

	m.Initialize(ctx)
	assert.True(t, m.Hydrated())
}

func TestInitialize_HydratesDespiteClosedStore(t *testing.T) {
	s, g := newTestBackends(t)
	require.NoError(t, s.Close())

	m := NewManager(s, g, testConfig("admin@example.com"), nil, nil)
	m.Initialize(context.Background())

	assert.True(t, m.Hydrated())
	assert.Empty(t, m.Reports())
	assert.Nil(t, m.CurrentUser())
}

func TestInitialize_RestoresSession(t *testing.T) {
	s, g := newTestBackends(t)
	ctx := context.Background()
	_, err := g.SignIn(ctx, "admin@example.com", "secret")
	require.NoError(t, err)

	m := NewManager(s, g, testConfig("admin@example.com"), nil, nil)
	m.Initialize(ctx)

	require.NotNil(t, m.CurrentUser())
	assert.Equal(t, "admin@example.com", m.CurrentUser().Email)
}

func TestInitialize_ClearsDisallowedSession(t *testing.T) {
	s, g := newTestBackends(t)
	ctx := context.Background()
	_, err := g.SignIn(ctx, "revoked@example.com", "secret")
	require.NoError(t, err)

	nav := &recordingNavigator{}
	m := NewManager(s, g, testConfig("admin@example.com"), nav, nil)
	m.Initialize(ctx)

	assert.True(t, m.Hydrated())
	assert.Nil(t, m.CurrentUser())

	call, ok := nav.last()
	require.True(t, ok)
	assert.Equal(t, TargetLogin, call.target)
	assert.NotEmpty(t, call.reason)

	// The persisted session is gone too.
	restored, err := g.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, restored)
}

func TestLogin_AllowListGate(t *testing.T) {
	m, nav := newTestManager(t, "admin@example.com")
	ctx := context.Background()
	m.Initialize(ctx)

	_, err := m.Login(ctx, "intruder@example.com", "secret")
	require.Error(t, err)
	assert.Nil(t, m.CurrentUser())

	sess, err := m.Login(ctx, "admin@example.com", "secret")
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.NotNil(t, m.CurrentUser())
	assert.Equal(t, "admin@example.com", m.CurrentUser().Email)

	call, ok := nav.last()
	require.True(t, ok)
	assert.Equal(t, TargetListing, call.target)
}

func TestLogin_EmptyCredentialsRejected(t *testing.T) {
	m, _ := newTestManager(t, "admin@example.com")
	ctx := context.Background()
	m.Initialize(ctx)

	_, err := m.Login(ctx, "admin@example.com", "")
	require.Error(t, err)
	assert.Nil(t, m.CurrentUser())
}

func TestLoginWithProvider_LocalModeNoop(t *testing.T) {
	m, _ := newTestManager(t, "admin@example.com")

	url, err := m.LoginWithProvider(context.Background())
	require.NoError(t, err)
	assert.Empty(t, url)
}

func TestLogout_Idempotent(t *testing.T) {
	m, nav := newTestManager(t, "admin@example.com")
	ctx := context.Background()
	m.Initialize(ctx)
	_, err := m.Login(ctx, "admin@example.com", "secret")
	require.NoError(t, err)

	m.Logout(ctx)
	assert.Nil(t, m.CurrentUser())

	call, ok := nav.last()
	require.True(t, ok)
	assert.Equal(t, TargetLogin, call.target)

	// Logging out again is a no-op beyond the navigation.
	m.Logout(ctx)
	assert.Nil(t, m.CurrentUser())
}

func TestApplySessionChange(t *testing.T) {
	m, nav := newTestManager(t, "admin@example.com")
	ctx := context.Background()
	m.Initialize(ctx)

	m.ApplySessionChange(ctx, domain.NewLocalUser("admin@example.com"))
	require.NotNil(t, m.CurrentUser())

	m.ApplySessionChange(ctx, domain.NewLocalUser("intruder@example.com"))
	assert.Nil(t, m.CurrentUser())

	call, ok := nav.last()
	require.True(t, ok)
	assert.Equal(t, TargetLogin, call.target)
	assert.NotEmpty(t, call.reason)

	m.ApplySessionChange(ctx, nil)
	assert.Nil(t, m.CurrentUser())
}

func TestReportsFiltering_ANDComposed(t *testing.T) {
	m, _ := newTestManager(t, "admin@example.com")
	ctx := context.Background()
	m.Initialize(ctx)

	seedReport(t, m, "Container networking", domain.CategoryContainer, "#docker", "#networking")
	seedReport(t, m, "Container storage", domain.CategoryContainer, "#docker")
	seedReport(t, m, "Cloud networking", domain.CategoryCloud, "#networking")

	assert.Len(t, m.Reports(), 3)

	m.SetSelectedCategory(domain.CategoryContainer)
	assert.Len(t, m.Reports(), 2)

	m.SetSelectedTag("#networking")
	filtered := m.Reports()
	require.Len(t, filtered, 1)
	assert.Equal(t, "Container networking", filtered[0].Title)

	// Tag filters compare in canonical form.
	m.SetSelectedTag("＃Networking")
	require.Len(t, m.Reports(), 1)

	m.SetSelectedCategory("")
	m.SetSelectedTag("")
	assert.Len(t, m.Reports(), 3)
}

func TestSelectionResetsOnListingEntry(t *testing.T) {
	m, _ := newTestManager(t, "admin@example.com")
	ctx := context.Background()
	m.Initialize(ctx)

	seedReport(t, m, "First", domain.CategoryDevelopment, "#go")
	m.SetSelectedCategory(domain.CategoryCloud)
	m.SetSelectedTag("#aws")

	// AddReport ends on the listing view, which clears the filters.
	seedReport(t, m, "Second", domain.CategoryDevelopment, "#go")
	assert.Len(t, m.Reports(), 2)
}
