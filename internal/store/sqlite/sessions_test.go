package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/espressoapp/espresso-server/internal/domain"
	"github.com/espressoapp/espresso-server/internal/store"
)

func sampleSession(id, userID, tokenHash string) *domain.Session {
	now := time.Now().UTC()
	return &domain.Session{
		ID:               id,
		UserID:           userID,
		RefreshTokenHash: tokenHash,
		ExpiresAt:        now.Add(24 * time.Hour),
		CreatedAt:        now,
		LastSeenAt:       now,
		IPAddress:        "127.0.0.1",
		ClientName:       "Espresso Web",
	}
}

func seedUser(t *testing.T, s *Store, id string) {
	t.Helper()
	if err := s.CreateUser(context.Background(), sampleUser(id, id+"@example.com")); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	sess := sampleSession("sess-1", "user-1", "token-hash-1")
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := s.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.UserID != "user-1" || got.ClientName != "Espresso Web" {
		t.Errorf("unexpected session: %+v", got)
	}

	byToken, err := s.GetSessionByRefreshToken(ctx, "token-hash-1")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if byToken.ID != "sess-1" {
		t.Errorf("expected sess-1, got %s", byToken.ID)
	}

	if err := s.DeleteSession(ctx, "sess-1"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := s.GetSession(ctx, "sess-1"); err != store.ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestGetSession_Expired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	sess := sampleSession("sess-exp", "user-1", "token-exp")
	sess.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := s.GetSession(ctx, "sess-exp"); err != store.ErrSessionExpired {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}
}

func TestUpdateSession_TokenRotation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	sess := sampleSession("sess-rot", "user-1", "token-old")
	if err := s.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create session: %v", err)
	}

	sess.RefreshTokenHash = "token-new"
	sess.Touch()
	if err := s.UpdateSession(ctx, sess); err != nil {
		t.Fatalf("update session: %v", err)
	}

	if _, err := s.GetSessionByRefreshToken(ctx, "token-new"); err != nil {
		t.Errorf("new token should resolve: %v", err)
	}
	if _, err := s.GetSessionByRefreshToken(ctx, "token-old"); err != store.ErrSessionNotFound {
		t.Errorf("old token should be gone, got %v", err)
	}
}

func TestDeleteAllUserSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")
	seedUser(t, s, "user-2")

	for _, sess := range []*domain.Session{
		sampleSession("sess-a", "user-1", "token-a"),
		sampleSession("sess-b", "user-1", "token-b"),
		sampleSession("sess-c", "user-2", "token-c"),
	} {
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatalf("create %s: %v", sess.ID, err)
		}
	}

	if err := s.DeleteAllUserSessions(ctx, "user-1"); err != nil {
		t.Fatalf("delete all user sessions: %v", err)
	}

	if _, err := s.GetSession(ctx, "sess-a"); err != store.ErrSessionNotFound {
		t.Errorf("sess-a should be gone, got %v", err)
	}
	if _, err := s.GetSession(ctx, "sess-c"); err != nil {
		t.Errorf("sess-c should survive: %v", err)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user-1")

	expired := sampleSession("sess-old", "user-1", "token-old")
	expired.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	if err := s.CreateSession(ctx, expired); err != nil {
		t.Fatalf("create expired: %v", err)
	}
	if err := s.CreateSession(ctx, sampleSession("sess-live", "user-1", "token-live")); err != nil {
		t.Fatalf("create live: %v", err)
	}

	deleted, err := s.DeleteExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
	if _, err := s.GetSession(ctx, "sess-live"); err != nil {
		t.Errorf("live session should survive: %v", err)
	}
}
