// Package store defines the persistence interface for the Espresso server.
//
// Two implementations exist: the Badger-backed Store in this package
// (the "local" backend) and the SQLite store in the sqlite subpackage
// (the "remote" backend). The data and auth modes select independently
// which backend serves which concern.
package store

import (
	"context"

	"github.com/espressoapp/espresso-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error
	SetSearchIndexer(indexer SearchIndexer)

	// Reports
	CreateReport(ctx context.Context, report *domain.Report) error
	GetReport(ctx context.Context, id string) (*domain.Report, error)
	UpdateReport(ctx context.Context, report *domain.Report) error
	DeleteReport(ctx context.Context, id string) error
	ListReports(ctx context.Context) ([]*domain.Report, error)
	CountReports(ctx context.Context) (int, error)

	// Tags. ListTagNames returns display forms; the local backend
	// derives them from reports, the remote backend reads tag rows.
	ListTagNames(ctx context.Context) ([]string, error)

	// Operator session persistence, used by the local identity backend.
	// CurrentUser returns ErrNotFound when nobody is signed in.
	SetCurrentUser(ctx context.Context, user *domain.User) error
	CurrentUser(ctx context.Context) (*domain.User, error)
	ClearCurrentUser(ctx context.Context) error

	// Users, used by the token identity backend.
	// HasUsers reports whether any account exists; the first-admin
	// setup flow is open only while it returns false.
	HasUsers(ctx context.Context) (bool, error)
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	// Auth sessions, used by the token identity backend.
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteAllUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)
}

// EventEmitter is the interface for emitting SSE events.
// Store uses this to broadcast changes without depending on SSE implementation details.
type EventEmitter interface {
	Emit(event any)
}

// NoopEmitter is a no-op implementation of EventEmitter for testing.
type NoopEmitter struct{}

// Emit implements EventEmitter.Emit as a no-op.
func (NoopEmitter) Emit(_ any) {}

// NewNoopEmitter creates a new no-op emitter for testing.
func NewNoopEmitter() EventEmitter { return NoopEmitter{} }

// SearchIndexer is the interface for updating the search index.
// Store uses this to keep search in sync without depending on search implementation.
// Index updates are performed asynchronously to not block store operations.
type SearchIndexer interface {
	IndexReport(ctx context.Context, report *domain.Report) error
	DeleteReport(ctx context.Context, reportID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexReport is a no-op.
func (NoopSearchIndexer) IndexReport(context.Context, *domain.Report) error { return nil }

// DeleteReport is a no-op.
func (NoopSearchIndexer) DeleteReport(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer { return NoopSearchIndexer{} }
