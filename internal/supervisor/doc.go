// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

/*
Package supervisor runs the server's long-running services under suture v4.

The tree has three layers so a failing maintenance loop never takes the HTTP
server down with it:

	RootSupervisor ("marketpanel")
	├── DataSupervisor ("data-layer")
	│   ├── store.GCService ("settings-store-gc")
	│   ├── cache.CleanupService ("chart-cache-cleanup")
	│   ├── cache.CleanupService ("panel-sessions-cache-cleanup")
	│   └── audit.Logger ("audit-log")
	├── MessagingSupervisor ("messaging-layer")
	│   └── websocket.Hub ("websocket-hub")
	└── APISupervisor ("api-layer")
	    └── services.HTTPServerService ("http-server")

Supervisor events go through sutureslog to a slog.Logger backed by zerolog
(logging.NewSlogLogger), so restarts and backoff appear in the normal log
stream.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(store.NewGCService(st, 10*time.Minute))
	tree.AddMessagingService(hub)
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

Services implement suture.Service: Serve(ctx) blocks until ctx is canceled
and returns ctx.Err(); any other return is treated as a failure and the
service is restarted with backoff.
*/
package supervisor
