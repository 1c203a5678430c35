// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package main

import (
	"fmt"
	"net/http"

	"github.com/tomtom215/modelview/internal/api"
	"github.com/tomtom215/modelview/internal/config"
	"github.com/tomtom215/modelview/internal/events"
	"github.com/tomtom215/modelview/internal/logging"
	"github.com/tomtom215/modelview/internal/project"
	"github.com/tomtom215/modelview/internal/store"
	"github.com/tomtom215/modelview/internal/supervisor"
	"github.com/tomtom215/modelview/internal/supervisor/services"
	ws "github.com/tomtom215/modelview/internal/websocket"
)

// app holds the wired components of one server process.
type app struct {
	cfg    *config.Config
	store  store.Store
	badger *store.BadgerStore
	bus    *events.Bus
	svc    *project.Service
	hub    *ws.Hub
	server *http.Server

	unsubscribe func()
}

func newApp(cfg *config.Config) (*app, error) {
	st, bs, err := openStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()
	svc := project.NewService(st, bus, project.WithMaxModelBytes(cfg.Security.MaxModelBytes))

	hub := ws.NewHub(ws.HubConfig{
		SendBuffer:      cfg.Gateway.SendBuffer,
		BroadcastBuffer: cfg.Gateway.BroadcastBuffer,
		MessageRate:     cfg.Gateway.MessageRate,
		MessageBurst:    cfg.Gateway.MessageBurst,
		MaxMessageSize:  cfg.Gateway.MaxMessageSize,
	}, svc)
	unsubscribe := bus.Subscribe(hub.HandleProjectUpdate)

	handler := api.NewHandler(svc, hub, api.HandlerConfig{
		MaxModelBytes:  cfg.Security.MaxModelBytes,
		AllowedOrigins: cfg.Gateway.AllowedOrigins,
	})
	handler.AddReadinessCheck("store", st.Ping)

	router := api.NewRouter(handler, middlewareConfig(cfg.Security))

	logging.Info().
		Str("backend", st.Backend()).
		Int64("max_model_bytes", cfg.Security.MaxModelBytes).
		Msg("Application components initialized")

	return &app{
		cfg:         cfg,
		store:       st,
		badger:      bs,
		bus:         bus,
		svc:         svc,
		hub:         hub,
		server:      newHTTPServer(cfg, router.Setup()),
		unsubscribe: unsubscribe,
	}, nil
}

// openStore opens the configured backend. The second result is non-nil
// only for badger so its maintenance service can be supervised.
func openStore(cfg config.StorageConfig) (store.Store, *store.BadgerStore, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		logging.Warn().Msg("Using in-memory store; projects are lost on restart")
		return store.NewMemoryStore(), nil, nil
	case config.BackendBadger, "":
		bs, err := store.OpenBadger(store.BadgerConfig{Path: cfg.Path, SyncWrites: cfg.SyncWrites})
		if err != nil {
			return nil, nil, err
		}
		return bs, bs, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func middlewareConfig(sec config.SecurityConfig) *api.ChiMiddlewareConfig {
	mw := api.DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = sec.CORSOrigins
	mw.RateLimitRequests = sec.RateLimitReqs
	mw.RateLimitWindow = sec.RateLimitWindow
	mw.RateLimitDisabled = sec.RateLimitDisabled
	return mw
}

// Supervise registers the long-running services with tree.
func (a *app) Supervise(tree *supervisor.SupervisorTree) {
	if a.badger != nil && a.cfg.Storage.GCInterval > 0 {
		tree.AddStorageService(services.NewValueLogGCService(a.badger, a.cfg.Storage.GCInterval, a.cfg.Storage.GCDiscardRatio))
		logging.Info().Dur("interval", a.cfg.Storage.GCInterval).Msg("Value-log GC service added")
	}

	tree.AddMessagingService(services.NewHubService(a.hub))
	logging.Info().Msg("WebSocket hub added to supervisor tree")

	tree.AddAPIService(services.NewHTTPServerService(a.server, a.server.Addr, a.cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", a.server.Addr).Msg("HTTP server service added")
}

// Close detaches the hub from the bus and closes the store.
func (a *app) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("close %s store: %w", a.store.Backend(), err)
	}
	return nil
}
