package tenantsource

import (
	"context"
	"encoding/json"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	auth "github.com/goliatone/go-shop-auth"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRedisKey hash holding one JSON encoded shop per domain
	DefaultRedisKey = "shop:tenants"
	// DefaultReloadChannel is published to after every change
	DefaultReloadChannel = "shop:tenants:reload"
)

// Redis reads shops from a hash, field = domain, value = JSON TenantConfig
type Redis struct {
	client  *redis.Client
	key     string
	channel string
}

var _ auth.TenantSource = (*Redis)(nil)

// NewRedis returns a source over key, publishing changes on channel. Empty
// arguments fall back to the defaults.
func NewRedis(client *redis.Client, key, channel string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	if channel == "" {
		channel = DefaultReloadChannel
	}
	return &Redis{client: client, key: key, channel: channel}
}

// Channel returns the reload channel name
func (r *Redis) Channel() string {
	return r.channel
}

// FetchAllTenants implements auth.TenantSource.
func (r *Redis) FetchAllTenants(ctx context.Context) ([]auth.TenantConfig, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, unavailable(err)
	}

	out := make([]auth.TenantConfig, 0, len(fields))
	for domain, raw := range fields {
		var cfg auth.TenantConfig
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, fmt.Sprintf("decode shop %q", domain))
		}
		if cfg.Domain == "" {
			cfg.Domain = domain
		}
		out = append(out, cfg)
	}
	return out, nil
}

// Put stores cfg and notifies watchers
func (r *Redis) Put(ctx context.Context, cfg auth.TenantConfig) error {
	cfg.Domain = auth.NormalizeDomain(cfg.Domain)
	if cfg.Domain == "" {
		return goerrors.New("put shop: empty domain", goerrors.CategoryValidation)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := r.client.HSet(ctx, r.key, cfg.Domain, raw).Err(); err != nil {
		return unavailable(err)
	}
	return r.Notify(ctx)
}

// Delete removes domain and notifies watchers
func (r *Redis) Delete(ctx context.Context, domain string) error {
	if err := r.client.HDel(ctx, r.key, auth.NormalizeDomain(domain)).Err(); err != nil {
		return unavailable(err)
	}
	return r.Notify(ctx)
}

// Notify asks every watcher to reload
func (r *Redis) Notify(ctx context.Context) error {
	if err := r.client.Publish(ctx, r.channel, "reload").Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

func unavailable(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, "tenant redis unavailable")
}
