// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/marketpanel/internal/api"
	"github.com/tomtom215/marketpanel/internal/audit"
	"github.com/tomtom215/marketpanel/internal/auth"
	"github.com/tomtom215/marketpanel/internal/cache"
	"github.com/tomtom215/marketpanel/internal/client"
	"github.com/tomtom215/marketpanel/internal/config"
	"github.com/tomtom215/marketpanel/internal/logging"
	"github.com/tomtom215/marketpanel/internal/models"
	"github.com/tomtom215/marketpanel/internal/platform"
	"github.com/tomtom215/marketpanel/internal/store"
	"github.com/tomtom215/marketpanel/internal/supervisor"
	"github.com/tomtom215/marketpanel/internal/supervisor/services"
	"github.com/tomtom215/marketpanel/internal/web"
	ws "github.com/tomtom215/marketpanel/internal/websocket"
)

const (
	panelAdminUsername   = "marketpanel"
	storeGCInterval      = 10 * time.Minute
	cacheCleanupInterval = time.Minute
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Marketpanel stopped with an error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		logging.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Service:   "marketpanel",
		Output:    os.Stderr,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("platform_url", cfg.Platform.URL).
		Bool("store_in_memory", cfg.Store.InMemory).
		Msg("Starting Marketpanel")

	// === DATA ===

	settings, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := settings.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing settings store")
		}
	}()

	catalog := platform.NewClient(cfg.Platform)
	charts := cache.New[*models.Chart](cfg.Cache.TTL)

	var auditLog *audit.Logger
	if cfg.Audit.Enabled {
		auditLog = audit.NewLogger(audit.NewBadgerStore(settings.DB(), cfg.Audit.Retention), cfg.Audit.BufferSize)
	}

	// === AUTH ===

	jwtManager, err := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Panel.AdminTokenTTL)
	if err != nil {
		return err
	}
	authMiddleware := auth.NewMiddleware(jwtManager)

	// The panel calls this server's own API with an admin token it renews itself.
	panelHTTP := auth.NewAdminHTTPClient(jwtManager, panelAdminUsername, nil)
	panelHTTP.Timeout = cfg.Server.Timeout
	panelAPI := client.New(cfg.Panel.ResolveAPIBaseURL(&cfg.Server), panelHTTP)

	// === HTTP ===

	hub := ws.NewHub()
	panelWeb, err := web.New(panelAPI, hub, web.Config{
		SessionTTL:     cfg.Panel.SessionTTL,
		AllowedOrigins: cfg.Security.CORSOrigins,
		Auth:           authMiddleware,
	})
	if err != nil {
		return err
	}

	handler := api.NewHandler(settings, catalog, charts, cfg)
	handler.SetAuditLogger(auditLog)
	router := api.NewRouter(handler, authMiddleware, api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)))
	router.Mount(panelWeb.Routes)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	// === SUPERVISOR TREE ===

	treeConfig := supervisor.DefaultTreeConfig()
	treeConfig.ShutdownTimeout = cfg.Server.Timeout
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), treeConfig)
	if err != nil {
		return err
	}

	tree.AddDataService(store.NewGCService(settings, storeGCInterval))
	tree.AddDataService(cache.NewCleanupService("chart", charts, cacheCleanupInterval))
	tree.AddDataService(cache.NewCleanupService("panel-sessions", panelWeb.Sessions().Cache(), cacheCleanupInterval))
	if auditLog != nil {
		tree.AddDataService(auditLog)
	}
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Starting supervisor tree")
	err = tree.Serve(ctx)

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
