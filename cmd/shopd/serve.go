package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-shop-auth/logging"
	"github.com/goliatone/go-shop-auth/tenantsource"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the HTTP server",
	RunE:  serveF,
}

func serveF(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	zl, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)
	if err != nil {
		return err
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, zl)
	if err != nil {
		zl.Error("failed to start", zap.Error(err))
		return err
	}
	defer app.Close()

	go app.watchTenantReloads(ctx)

	errc := make(chan error, 1)
	go func() {
		zl.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		errc <- app.server.Serve(cfg.HTTP.Addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.server.Shutdown(sctx)
}

// watchTenantReloads reloads the registry on SIGHUP, and on every publish
// to the reload channel when shops live in redis. It returns when ctx is
// done.
func (a *App) watchTenantReloads(ctx context.Context) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	if rs, ok := a.source.(*tenantsource.Redis); ok {
		go func() {
			err := tenantsource.WatchRedis(ctx, a.redis, rs.Channel(), a.ReloadTenants, a.logger)
			if err != nil && ctx.Err() == nil {
				a.zap.Error("tenant watch stopped", zap.Error(err))
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			a.zap.Info("reloading tenants on SIGHUP")
			// failures are logged by the loader, the old mapping stays
			_ = a.ReloadTenants(ctx)
		}
	}
}
