// Package di provides dependency injection configuration for the Espresso server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/espressoapp/espresso-server/internal/auth"
	"github.com/espressoapp/espresso-server/internal/config"
	"github.com/espressoapp/espresso-server/internal/di/providers"
	"github.com/espressoapp/espresso-server/internal/identity"
	"github.com/espressoapp/espresso-server/internal/logger"
	"github.com/espressoapp/espresso-server/internal/state"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideTokenService)

	// Persistence layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// Identity layer
	do.Provide(injector, providers.ProvideGateway)

	// Application state
	do.Provide(injector, providers.ProvideStateManager)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	cfg := do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)

	// The auth key and token service only matter in remote auth mode;
	// the gateway provider pulls them in on demand.
	if cfg.Auth.Mode == config.ModeRemote {
		_ = do.MustInvoke[providers.AuthKey](injector)
		_ = do.MustInvoke[*auth.TokenService](injector)
	}

	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[identity.Gateway](injector)
	_ = do.MustInvoke[*state.Manager](injector)
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	// Backfill the search index if it is empty but reports exist.
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
