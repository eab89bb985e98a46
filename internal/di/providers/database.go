package providers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/espressoapp/espresso-server/internal/config"
	"github.com/espressoapp/espresso-server/internal/logger"
	"github.com/espressoapp/espresso-server/internal/sse"
	"github.com/espressoapp/espresso-server/internal/store"
	"github.com/espressoapp/espresso-server/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// StoreHandle wraps the selected persistence backend with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the persistence backend selected by the data mode:
// the embedded key-value store for "local", the relational store for "remote".
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	var (
		st  store.Store
		err error
	)
	switch cfg.Data.Mode {
	case config.ModeRemote:
		dbPath := filepath.Join(cfg.Data.BasePath, "espresso.db")
		st, err = sqlite.Open(dbPath, log.Logger, sseHandle.Manager)
	case config.ModeLocal, "":
		dbPath := filepath.Join(cfg.Data.BasePath, "db")
		st, err = store.New(dbPath, log.Logger, sseHandle.Manager)
	default:
		return nil, fmt.Errorf("unknown data mode %q", cfg.Data.Mode)
	}
	if err != nil {
		return nil, err
	}

	log.Info("Store initialized", "mode", cfg.Data.Mode, "path", cfg.Data.BasePath)

	return &StoreHandle{Store: st}, nil
}
