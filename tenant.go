package auth

import (
	"sort"
	"strings"
	"sync"
)

// TenantConfig describes one shop served by the process
type TenantConfig struct {
	Domain      string `json:"domain" yaml:"domain" mapstructure:"domain"`
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	ProductType string `json:"product_type" yaml:"product_type" mapstructure:"product_type"`
}

// ResolvedTenant is the outcome of tenant resolution for one request. Config
// is nil when no shop is registered for Host.
type ResolvedTenant struct {
	Host   string        `json:"host"`
	Config *TenantConfig `json:"config,omitempty"`
}

// Found reports whether a shop matched the request host
func (r ResolvedTenant) Found() bool {
	return r.Config != nil
}

// NormalizeDomain lower cases d and drops a trailing root dot
func NormalizeDomain(d string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(d)), ".")
}

// TenantRegistry maps domains to shop configuration. Readers never observe
// a partially applied reload.
type TenantRegistry struct {
	mu      sync.RWMutex
	tenants map[string]TenantConfig
}

// NewTenantRegistry returns a registry seeded with entries
func NewTenantRegistry(entries ...TenantConfig) *TenantRegistry {
	return &TenantRegistry{tenants: buildTenantMap(entries)}
}

func buildTenantMap(entries []TenantConfig) map[string]TenantConfig {
	m := make(map[string]TenantConfig, len(entries))
	for _, e := range entries {
		e.Domain = NormalizeDomain(e.Domain)
		if e.Domain == "" {
			continue
		}
		m[e.Domain] = e
	}
	return m
}

// Reload replaces the whole mapping with entries. Domains absent from
// entries stop resolving.
func (r *TenantRegistry) Reload(entries []TenantConfig) {
	next := buildTenantMap(entries)

	r.mu.Lock()
	r.tenants = next
	r.mu.Unlock()
}

// Insert adds or overwrites a single entry
func (r *TenantRegistry) Insert(cfg TenantConfig) {
	cfg.Domain = NormalizeDomain(cfg.Domain)
	if cfg.Domain == "" {
		return
	}

	r.mu.Lock()
	r.tenants[cfg.Domain] = cfg
	r.mu.Unlock()
}

// Lookup returns the shop registered for domain
func (r *TenantRegistry) Lookup(domain string) (TenantConfig, bool) {
	key := NormalizeDomain(domain)

	r.mu.RLock()
	cfg, ok := r.tenants[key]
	r.mu.RUnlock()

	return cfg, ok
}

// Resolve wraps Lookup into a ResolvedTenant for host
func (r *TenantRegistry) Resolve(host string) ResolvedTenant {
	out := ResolvedTenant{Host: NormalizeDomain(host)}
	if cfg, ok := r.Lookup(host); ok {
		out.Config = &cfg
	}
	return out
}

// Snapshot returns a copy of all entries sorted by domain
func (r *TenantRegistry) Snapshot() []TenantConfig {
	r.mu.RLock()
	out := make([]TenantConfig, 0, len(r.tenants))
	for _, cfg := range r.tenants {
		out = append(out, cfg)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Domain < out[j].Domain
	})
	return out
}

// Len returns the number of registered domains
func (r *TenantRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tenants)
}
