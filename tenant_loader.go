package auth

import (
	"context"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// TenantLoader refreshes a TenantRegistry from a TenantSource. Static entries
// are part of every swapped map so local development hosts keep resolving
// regardless of what the source returns.
type TenantLoader struct {
	mu       sync.Mutex
	source   TenantSource
	registry *TenantRegistry
	static   []TenantConfig
	logger   Logger
}

// NewTenantLoader wires source into registry
func NewTenantLoader(source TenantSource, registry *TenantRegistry, logger Logger, static ...TenantConfig) *TenantLoader {
	if logger == nil {
		logger = defLogger{}
	}
	return &TenantLoader{
		source:   source,
		registry: registry,
		static:   static,
		logger:   logger,
	}
}

// Reload fetches every shop and swaps the registry contents in one step.
// Concurrent reloads are serialized. On a source failure the registry keeps
// serving the previous mapping.
func (l *TenantLoader) Reload(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fetched, err := l.source.FetchAllTenants(ctx)
	if err != nil {
		l.logger.Error("tenant reload failed", "error", err)
		return l.registry.Len(), goerrors.Wrap(err, goerrors.CategoryExternal, "fetch tenants")
	}

	entries := make([]TenantConfig, 0, len(fetched)+len(l.static))
	entries = append(entries, fetched...)
	entries = append(entries, l.static...)
	l.registry.Reload(entries)

	n := l.registry.Len()
	l.logger.Info("tenants reloaded", "fetched", len(fetched), "static", len(l.static), "total", n)

	return n, nil
}
