// Package state holds the in-process application state: the report
// collection, the tag vocabulary, the current user, selection state,
// and the hydration flag. It is the single writer for all of them.
// Persistence goes through one store.Store and authentication through
// one identity.Gateway, both chosen at startup, so every operation
// here is backend-agnostic.
package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/espressoapp/espresso-server/internal/config"
	"github.com/espressoapp/espresso-server/internal/domain"
	domainerrors "github.com/espressoapp/espresso-server/internal/errors"
	"github.com/espressoapp/espresso-server/internal/identity"
	"github.com/espressoapp/espresso-server/internal/normalize"
	"github.com/espressoapp/espresso-server/internal/store"
)

// disallowedReason is the login-redirect reason shown when a session
// fails the allow-list check.
const disallowedReason = "account is not permitted to sign in"

// federatedReturnPath is the route the federated provider redirects
// back to after an external sign-in.
const federatedReturnPath = "/auth/callback"

// Manager owns the mutable application state. Create one at startup,
// call Initialize once, then serve every other operation through it.
type Manager struct {
	store   store.Store
	gateway identity.Gateway
	cfg     *config.Config
	nav     Navigator
	logger  *slog.Logger

	mu               sync.RWMutex
	reports          []*domain.Report
	tags             []string
	user             *domain.User
	selectedCategory string
	selectedTag      string
	hydrated         bool
}

// NewManager creates a state manager over the given backends.
func NewManager(st store.Store, gateway identity.Gateway, cfg *config.Config, nav Navigator, logger *slog.Logger) *Manager {
	if nav == nil {
		nav = NewNoopNavigator()
	}
	return &Manager{
		store:   st,
		gateway: gateway,
		cfg:     cfg,
		nav:     nav,
		logger:  logger,
	}
}

// Initialize loads reports and the tag vocabulary, then resolves any
// restored session. It always flips the hydration flag, even when
// every load fails: a failed load yields empty state, never a stuck
// pending state. A restored session whose email is no longer on the
// allow-list is cleared, with a login redirect explaining why.
func (m *Manager) Initialize(ctx context.Context) {
	reports, err := m.store.ListReports(ctx)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("failed to load reports", "error", err)
		}
		reports = nil
	}

	tags, err := m.store.ListTagNames(ctx)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("failed to load tag vocabulary", "error", err)
		}
		tags = nil
	}

	user, err := m.gateway.CurrentSession(ctx)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("failed to resolve session", "error", err)
		}
		user = nil
	}

	disallowed := false
	if user != nil && !m.cfg.AllowsEmail(user.Email) {
		if m.logger != nil {
			m.logger.Warn("clearing disallowed restored session", "email", user.Email)
		}
		if err := m.gateway.SignOut(ctx); err != nil && m.logger != nil {
			m.logger.Warn("failed to clear disallowed session", "error", err)
		}
		user = nil
		disallowed = true
	}

	m.mu.Lock()
	m.reports = reports
	m.tags = tags
	m.user = user
	m.hydrated = true
	m.mu.Unlock()

	if disallowed {
		m.nav.ToLogin(disallowedReason)
	}
}

// Login authenticates the given credentials through the identity
// gateway and, on success, installs the session user and navigates to
// the listing. A nil error means success; gateway failures are
// surfaced verbatim. An identity that authenticates but fails the
// allow-list is signed out immediately and rejected. The returned
// session carries the token pair in token auth mode.
func (m *Manager) Login(ctx context.Context, email, secret string) (*identity.Session, error) {
	sess, err := m.gateway.SignIn(ctx, email, secret)
	if err != nil {
		return nil, err
	}

	if !m.cfg.AllowsEmail(sess.User.Email) {
		outCtx := identity.WithPrincipal(ctx, identity.Principal{
			User:      sess.User,
			SessionID: sess.SessionID,
		})
		if err := m.gateway.SignOut(outCtx); err != nil && m.logger != nil {
			m.logger.Warn("failed to tear down disallowed session", "email", sess.User.Email, "error", err)
		}
		return nil, domainerrors.NotAllowed(disallowedReason)
	}

	m.mu.Lock()
	m.user = sess.User
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("login", "user_id", sess.User.ID, "name", sess.User.Name())
	}

	m.enterListing()
	return sess, nil
}

// LoginWithProvider starts the redirect-based federated flow and
// returns the provider authorize URL. In local auth mode it is a
// silent no-op returning ("", nil). The user is not set here; it
// arrives later through the gateway's session-change notification.
func (m *Manager) LoginWithProvider(_ context.Context) (string, error) {
	return m.gateway.FederatedSignInURL(federatedReturnPath)
}

// Logout clears the session and navigates to the login boundary.
// Idempotent: with no active session only the navigation happens.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.gateway.SignOut(ctx); err != nil && m.logger != nil {
		m.logger.Warn("sign-out failed", "error", err)
	}

	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()

	m.nav.ToLogin("")
}

// ApplySessionChange installs a user that arrived outside the Login
// path, such as a federated callback completing or a sign-out from
// another client (nil user). The allow-list applies here too.
func (m *Manager) ApplySessionChange(ctx context.Context, user *domain.User) {
	disallowed := false
	if user != nil && !m.cfg.AllowsEmail(user.Email) {
		if m.logger != nil {
			m.logger.Warn("rejecting disallowed session change", "email", user.Email)
		}
		if err := m.gateway.SignOut(ctx); err != nil && m.logger != nil {
			m.logger.Warn("failed to clear disallowed session", "error", err)
		}
		user = nil
		disallowed = true
	}

	m.mu.Lock()
	m.user = user
	m.mu.Unlock()

	if disallowed {
		m.nav.ToLogin(disallowedReason)
	}
}

// SetSelectedCategory sets the listing category filter. "" clears it.
func (m *Manager) SetSelectedCategory(category string) {
	m.mu.Lock()
	m.selectedCategory = category
	m.mu.Unlock()
}

// SetSelectedTag sets the listing tag filter. "" clears it.
func (m *Manager) SetSelectedTag(tag string) {
	m.mu.Lock()
	m.selectedTag = tag
	m.mu.Unlock()
}

// Reports returns the most-recent-first report collection, narrowed
// by the active category and tag filters. Both filters must match
// when both are set.
func (m *Manager) Reports() []*domain.Report {
	m.mu.RLock()
	category, tag := m.selectedCategory, m.selectedTag
	m.mu.RUnlock()
	return m.FilteredReports(category, tag)
}

// FilteredReports narrows the collection by explicit filter values,
// leaving the selection state alone. "" skips a filter.
func (m *Manager) FilteredReports(category, tag string) []*domain.Report {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Report, 0, len(m.reports))
	for _, r := range m.reports {
		if category != "" && r.Category != category {
			continue
		}
		if tag != "" && !hasTag(r, tag) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Tags returns the current tag vocabulary in display form.
func (m *Manager) Tags() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.tags))
	copy(out, m.tags)
	return out
}

// CurrentUser returns the session user, or nil when anonymous.
func (m *Manager) CurrentUser() *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}

// Hydrated reports whether Initialize has completed.
func (m *Manager) Hydrated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hydrated
}

// enterListing clears the selection filters and navigates to the
// listing view.
func (m *Manager) enterListing() {
	m.mu.Lock()
	m.selectedCategory = ""
	m.selectedTag = ""
	m.mu.Unlock()

	m.nav.ToListing()
}

// refreshTags reloads the tag vocabulary after a report mutation.
// Failures keep the previous vocabulary.
func (m *Manager) refreshTags(ctx context.Context) {
	tags, err := m.store.ListTagNames(ctx)
	if err != nil {
		if m.logger != nil {
			m.logger.Warn("failed to refresh tag vocabulary", "error", err)
		}
		return
	}

	m.mu.Lock()
	m.tags = tags
	m.mu.Unlock()
}

func hasTag(r *domain.Report, tag string) bool {
	for _, t := range r.Tags {
		if normalize.Equal(t, tag) {
			return true
		}
	}
	return false
}
