package app

import (
	"context"
	"fmt"
	"log"

	"github.com/Rorical/RoriChat/internal/backend"
	"github.com/Rorical/RoriChat/internal/config"
	"github.com/Rorical/RoriChat/internal/conversation"
	"github.com/Rorical/RoriChat/internal/storage"
)

// OpenStore opens the configured storage driver and wraps it in a
// conversation store. The caller closes the returned storage.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*conversation.Store, storage.Storage, error) {
	st, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	store := conversation.NewStore(st,
		conversation.WithKey(cfg.StorageKey()),
		conversation.WithLogger(logger),
	)
	return store, st, nil
}

// NewBackend builds the backend for the active profile, or nil when the
// profile cannot reach one.
func NewBackend(cfg *config.Config) backend.Backend {
	if !cfg.IsValid() {
		return nil
	}
	switch cfg.GetBackendKind() {
	case config.BackendOpenAI:
		return backend.NewOpenAIBackend(cfg.GetAPIKey(), cfg.GetEndpoint(), nil)
	case config.BackendServer:
		return backend.NewHTTPBackend(cfg.GetEndpoint())
	}
	return nil
}
