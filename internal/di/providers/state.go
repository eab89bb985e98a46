package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/espressoapp/espresso-server/internal/config"
	"github.com/espressoapp/espresso-server/internal/identity"
	"github.com/espressoapp/espresso-server/internal/logger"
	"github.com/espressoapp/espresso-server/internal/state"
)

// ProvideStateManager provides the hydrated application state store.
// Navigation intents are emitted over SSE so connected clients follow
// session and report changes.
func ProvideStateManager(i do.Injector) (*state.Manager, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	gateway := do.MustInvoke[identity.Gateway](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	nav := state.NewEventNavigator(sseHandle.Manager)
	mgr := state.NewManager(storeHandle.Store, gateway, cfg, nav, log.Logger)

	mgr.Initialize(context.Background())

	log.Info("Application state hydrated",
		"reports", len(mgr.Reports()),
		"tags", len(mgr.Tags()),
		"signed_in", mgr.CurrentUser() != nil,
	)

	return mgr, nil
}
