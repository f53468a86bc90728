// gconnect bridges the Argo didUP family portal to a small JSON API:
// authenticate once with school code, username and password, then keep
// syncing with the returned token pair instead of the password.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gconnectapp/gconnect/argo"
	"github.com/gconnectapp/gconnect/config"
	"github.com/gconnectapp/gconnect/logging"
	"github.com/gconnectapp/gconnect/metrics"
	"github.com/gconnectapp/gconnect/middleware"
	"github.com/gconnectapp/gconnect/router"
	"github.com/gconnectapp/gconnect/secrets"
	"github.com/gconnectapp/gconnect/server"
	"github.com/gconnectapp/gconnect/web"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap := logging.BootstrapLogger()

	cfg, err := config.Load(bootstrap)
	if err != nil {
		bootstrap.Fatal("failed to load config", zap.Error(err))
	}

	logger := logging.MustBuildLogger(cfg.LogLevel, cfg.Env)
	defer func() { _ = logger.Sync() }()
	logger.Debug("config loaded", zap.String("config", cfg.Dump()))

	metrics.RegisterDefault(logger)

	var codec *secrets.Codec
	if cfg.SealKey != "" {
		codec, err = secrets.NewCodec(cfg.SealKey)
		if err != nil {
			logger.Fatal("failed to build credential codec", zap.Error(err))
		}
	} else {
		logger.Warn("no seal_key configured; sealed-credential resume is disabled")
	}

	client := argo.New(
		argo.WithLogger(logger.Named("argo")),
		argo.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}),
		argo.WithDateShift(argo.DateShift{Days: cfg.DateShiftDays}),
		argo.WithStrategyObserver(metrics.CountStrategyHit),
	)

	r := router.New(cfg, logger)
	web.NewHandler(client, codec, logger.Named("web")).
		WithLoginLimiter(middleware.PerIPRateLimit(cfg.LoginRatePerMinute, cfg.LoginBurst, logger.Named("ratelimit"))).
		Mount(r)

	if err := server.Start(ctx, cfg.HTTPPort, r, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
