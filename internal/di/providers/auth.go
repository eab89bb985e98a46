package providers

import (
	"encoding/hex"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/espressoapp/espresso-server/internal/auth"
	"github.com/espressoapp/espresso-server/internal/config"
	"github.com/espressoapp/espresso-server/internal/identity"
	"github.com/espressoapp/espresso-server/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the authentication key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	// Update config with the loaded key
	cfg.Auth.AccessTokenKey = key

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
		"refresh_token_duration", cfg.Auth.RefreshTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	keyHex := hex.EncodeToString([]byte(authKey))
	return auth.NewTokenService(keyHex, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
}

// ProvideGateway provides the identity gateway selected by the auth mode:
// the trust-the-email gateway for "local", the token-issuing gateway for
// "remote". The token service is only constructed in remote mode.
func ProvideGateway(i do.Injector) (identity.Gateway, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	switch cfg.Auth.Mode {
	case config.ModeRemote:
		tokens := do.MustInvoke[*auth.TokenService](i)
		gw := identity.NewTokenGateway(
			storeHandle.Store,
			tokens,
			sseHandle.Manager,
			log.Logger,
			cfg.Auth.ProviderAuthorizeURL,
			cfg.Server.SiteURL,
		)
		log.Info("Identity gateway initialized", "mode", "remote")
		return gw, nil
	case config.ModeLocal, "":
		gw := identity.NewLocalGateway(storeHandle.Store, sseHandle.Manager, log.Logger)
		log.Info("Identity gateway initialized", "mode", "local")
		return gw, nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
}
