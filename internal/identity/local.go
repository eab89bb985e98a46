package identity

import (
	"context"
	"log/slog"

	"github.com/espressoapp/espresso-server/internal/domain"
	domainerrors "github.com/espressoapp/espresso-server/internal/errors"
	"github.com/espressoapp/espresso-server/internal/sse"
	"github.com/espressoapp/espresso-server/internal/store"
)

// LocalGateway is the simulated sign-in flow. Credentials only need to
// be non-empty; the email allow-list is the real gate and the state
// store enforces it. The signed-in operator is a single persisted record.
type LocalGateway struct {
	store   store.Store
	emitter store.EventEmitter
	logger  *slog.Logger
}

var _ Gateway = (*LocalGateway)(nil)

// NewLocalGateway creates the local auth mode gateway.
func NewLocalGateway(s store.Store, emitter store.EventEmitter, logger *slog.Logger) *LocalGateway {
	if emitter == nil {
		emitter = store.NewNoopEmitter()
	}
	return &LocalGateway{store: s, emitter: emitter, logger: logger}
}

// SignIn accepts any non-empty credentials and persists the operator record.
func (g *LocalGateway) SignIn(ctx context.Context, email, secret string) (*Session, error) {
	if email == "" || secret == "" {
		return nil, domainerrors.Validation("email and password are required")
	}

	user := domain.NewLocalUser(email)
	if err := g.store.SetCurrentUser(ctx, user); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to persist session")
	}

	g.emitter.Emit(sse.NewSessionChangedEvent(user))

	if g.logger != nil {
		g.logger.Info("local sign-in", "email", email)
	}
	return &Session{User: user}, nil
}

// FederatedSignInURL is a no-op in local auth mode.
func (g *LocalGateway) FederatedSignInURL(_ string) (string, error) {
	return "", nil
}

// CompleteFederated persists the operator record for the asserted
// email, exactly as a password sign-in would. Subsequent requests
// resolve the identity from the same persisted record.
func (g *LocalGateway) CompleteFederated(ctx context.Context, email string) (*Session, error) {
	if email == "" {
		return nil, domainerrors.Validation("email is required")
	}

	user := domain.NewLocalUser(email)
	if err := g.store.SetCurrentUser(ctx, user); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to persist session")
	}

	g.emitter.Emit(sse.NewSessionChangedEvent(user))

	if g.logger != nil {
		g.logger.Info("federated sign-in", "email", email)
	}
	return &Session{User: user}, nil
}

// SignOut clears the operator record. Idempotent.
func (g *LocalGateway) SignOut(ctx context.Context) error {
	if err := g.store.ClearCurrentUser(ctx); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to clear session")
	}
	g.emitter.Emit(sse.NewSessionChangedEvent(nil))
	return nil
}

// CurrentSession returns the persisted operator, or (nil, nil) when
// nobody is signed in.
func (g *LocalGateway) CurrentSession(ctx context.Context) (*domain.User, error) {
	user, err := g.store.CurrentUser(ctx)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}
