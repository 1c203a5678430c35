// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/modelview/internal/config"
	"github.com/tomtom215/modelview/internal/logging"
	"github.com/tomtom215/modelview/internal/supervisor"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	cfg, err := config.LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = time.Second
	cfg.Storage.Backend = backend
	cfg.Storage.Path = t.TempDir()
	cfg.Security.RateLimitDisabled = true
	return cfg
}

func TestOpenStore(t *testing.T) {
	tests := []struct {
		backend string
		badger  bool
		wantErr bool
	}{
		{config.BackendMemory, false, false},
		{config.BackendBadger, true, false},
		{"sqlite", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := testConfig(t, tt.backend)
			st, bs, err := openStore(cfg.Storage)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("openStore: %v", err)
			}
			defer st.Close()
			if st.Backend() != tt.backend {
				t.Errorf("Backend() = %q, want %q", st.Backend(), tt.backend)
			}
			if (bs != nil) != tt.badger {
				t.Errorf("badger handle = %v, want present=%v", bs, tt.badger)
			}
		})
	}
}

func TestAppServesAPI(t *testing.T) {
	cfg := testConfig(t, config.BackendBadger)
	a, err := newApp(cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	defer a.Close()

	srv := httptest.NewServer(a.server.Handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/projects", "application/json", strings.NewReader(`{"title":"Bracket"}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "projectId") {
		t.Errorf("create body = %s", body)
	}

	resp, err = http.Get(srv.URL + "/api/v1/health/ready")
	if err != nil {
		t.Fatalf("ready: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("ready status = %d", resp.StatusCode)
	}
}

func TestReadinessFollowsStore(t *testing.T) {
	a, err := newApp(testConfig(t, config.BackendMemory))
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	srv := httptest.NewServer(a.server.Handler)
	defer srv.Close()

	ready := func() int {
		t.Helper()
		resp, err := http.Get(srv.URL + "/api/v1/health/ready")
		if err != nil {
			t.Fatalf("ready: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if got := ready(); got != http.StatusOK {
		t.Fatalf("ready with open store = %d, want 200", got)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := ready(); got != http.StatusServiceUnavailable {
		t.Errorf("ready with closed store = %d, want 503", got)
	}
}

func TestAppSupervisedLifecycle(t *testing.T) {
	cfg := testConfig(t, config.BackendBadger)
	cfg.Storage.GCInterval = time.Hour
	a, err := newApp(cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{ShutdownTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewSupervisorTree: %v", err)
	}
	a.Supervise(tree)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	// Let every layer start before shutting down.
	time.Sleep(100 * time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("tree error: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("tree did not stop")
	}
	if report, _ := tree.UnstoppedServiceReport(); len(report) != 0 {
		t.Errorf("unstopped services: %+v", report)
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
