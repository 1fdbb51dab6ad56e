package tenantsource

import (
	"context"
	"fmt"

	auth "github.com/goliatone/go-shop-auth"
	"github.com/redis/go-redis/v9"
)

// WatchRedis calls onReload for every message published on channel until
// ctx is done. A failing onReload is logged and the watch continues.
func WatchRedis(ctx context.Context, client *redis.Client, channel string, onReload func(context.Context) error, logger auth.Logger) error {
	if logger == nil {
		logger = auth.NopLogger{}
	}

	sub := client.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %q: %w", channel, err)
	}
	logger.Info("watching tenant reloads", "channel", channel)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := onReload(ctx); err != nil {
				logger.Error("tenant reload from watch failed", "channel", channel, "error", err)
			}
		}
	}
}
