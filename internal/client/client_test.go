// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/modelview/internal/api"
	"github.com/tomtom215/modelview/internal/events"
	"github.com/tomtom215/modelview/internal/logging"
	"github.com/tomtom215/modelview/internal/metrics"
	"github.com/tomtom215/modelview/internal/models"
	"github.com/tomtom215/modelview/internal/pipeline"
	"github.com/tomtom215/modelview/internal/project"
	"github.com/tomtom215/modelview/internal/store"
	ws "github.com/tomtom215/modelview/internal/websocket"
)

var _ pipeline.Remote = (*Client)(nil)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

// startServer runs the full HTTP + socket stack on an in-memory store.
func startServer(t *testing.T) (httpURL, wsURL string) {
	t.Helper()

	bus := events.NewBus()
	svc := project.NewService(store.NewMemoryStore(), bus)
	hub := ws.NewHub(ws.HubConfig{}, svc)
	unsubscribe := bus.Subscribe(hub.HandleProjectUpdate)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.RunWithContext(ctx) }()

	mw := api.DefaultChiMiddlewareConfig()
	mw.RateLimitDisabled = true
	srv := httptest.NewServer(api.NewRouter(api.NewHandler(svc, hub, api.HandlerConfig{}), mw).Setup())
	t.Cleanup(func() {
		srv.Close()
		unsubscribe()
		cancel()
	})
	return srv.URL, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func nextUpdate(t *testing.T, s *Socket) models.ProjectUpdate {
	t.Helper()
	select {
	case u, ok := <-s.Updates():
		if !ok {
			t.Fatal("socket closed")
		}
		return u
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for update")
	}
	return models.ProjectUpdate{}
}

func TestClient_RoundTrip(t *testing.T) {
	base, _ := startServer(t)
	c := New(Config{BaseURL: base, Breaker: BreakerConfig{Name: "test-roundtrip"}})
	ctx := context.Background()

	id, err := c.Create(ctx, "Gearbox")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	doc, err := c.Get(ctx, id)
	if err != nil || doc == nil {
		t.Fatalf("Get: %v %v", doc, err)
	}
	if doc.Title != "Gearbox" || doc.Camera != models.DefaultCamera() {
		t.Errorf("doc = %+v", doc)
	}

	missing, err := c.Get(ctx, "does-not-exist")
	if err != nil || missing != nil {
		t.Errorf("Get(missing) = %v, %v; want nil, nil", missing, err)
	}

	cam := models.Camera{Position: models.Vector3{X: 1, Y: 1, Z: 1}}
	if ok, err := c.UpdateCamera(ctx, id, "alice", cam); err != nil || !ok {
		t.Errorf("UpdateCamera = %v, %v", ok, err)
	}
	if ok, err := c.UpdateCamera(ctx, id, "alice", cam); err != nil || ok {
		t.Errorf("repeated UpdateCamera = %v, %v; want false, nil", ok, err)
	}

	origin := models.Vector3{X: 3}
	if ok, err := c.UpdateModelTransform(ctx, id, "alice", models.TransformPatch{Origin: &origin}); err != nil || !ok {
		t.Errorf("UpdateModelTransform = %v, %v", ok, err)
	}

	ann, err := c.AddAnnotation(ctx, id, "alice", "hole", models.Vector3{Y: 1})
	if err != nil {
		t.Fatalf("AddAnnotation: %v", err)
	}
	if ok, err := c.EditAnnotation(ctx, id, "alice", ann.ID, "bigger hole"); err != nil || !ok {
		t.Errorf("EditAnnotation = %v, %v", ok, err)
	}
	if ok, err := c.AppendChat(ctx, id, "alice", "hi"); err != nil || !ok {
		t.Errorf("AppendChat = %v, %v", ok, err)
	}

	doc, _ = c.Get(ctx, id)
	if doc.ModelTransform.Origin != origin || doc.ModelTransform.Scale != (models.Vector3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("transform = %+v", doc.ModelTransform)
	}
	if len(doc.Annotations) != 1 || doc.Annotations[0].Text != "bigger hole" || len(doc.ChatLog) != 1 {
		t.Errorf("doc = %+v", doc)
	}

	list, err := c.List(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("List = %v, %v", list, err)
	}

	u, err := c.CreateUser(ctx, "Alice")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if got, err := c.GetUser(ctx, u.UserID); err != nil || got == nil || got.Name != "Alice" {
		t.Errorf("GetUser = %v, %v", got, err)
	}
	if got, err := c.GetUser(ctx, "nobody"); err != nil || got != nil {
		t.Errorf("GetUser(unknown) = %v, %v", got, err)
	}
}

func TestClient_ClientErrorsDoNotTrip(t *testing.T) {
	base, _ := startServer(t)
	c := New(Config{BaseURL: base, Breaker: BreakerConfig{Name: "test-4xx", ConsecutiveFailures: 2}})
	ctx := context.Background()
	id, _ := c.Create(ctx, "x")

	for i := 0; i < 5; i++ {
		_, err := c.AppendChat(ctx, id, "", "anonymous")
		var apiErr *Error
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
			t.Fatalf("AppendChat without user = %v, want 400", err)
		}
	}
	if c.BreakerState() != "closed" {
		t.Errorf("breaker = %s after client errors, want closed", c.BreakerState())
	}
}

func TestClient_BreakerOpensOnServerFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"status":"error","error":{"code":"INTERNAL_ERROR","message":"boom"}}`)
	}))
	defer srv.Close()

	const name = "test-breaker-open"
	c := New(Config{BaseURL: srv.URL, Breaker: BreakerConfig{Name: name, ConsecutiveFailures: 3, OpenTimeout: time.Hour}})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.Get(ctx, "p"); err == nil || errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("call %d: err = %v, want server error", i, err)
		}
	}
	if _, err := c.Get(ctx, "p"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if hits.Load() != 3 {
		t.Errorf("server hit %d times, want 3", hits.Load())
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues(name)); got != 2 {
		t.Errorf("breaker state metric = %v, want 2 (open)", got)
	}
	if got := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues(name, "rejected")); got != 1 {
		t.Errorf("rejected = %v, want 1", got)
	}
}

func TestSocket_IdentityAndFanout(t *testing.T) {
	base, wsURL := startServer(t)
	c := New(Config{BaseURL: base, Breaker: BreakerConfig{Name: "test-socket"}})
	ctx := context.Background()
	id, _ := c.Create(ctx, "shared")

	alice, err := Dial(ctx, wsURL, "alice")
	if err != nil {
		t.Fatalf("Dial alice: %v", err)
	}
	defer alice.Close()
	fresh, err := Dial(ctx, wsURL, "")
	if err != nil {
		t.Fatalf("Dial fresh: %v", err)
	}
	defer fresh.Close()

	if alice.UserID() != "alice" {
		t.Errorf("alice id = %q", alice.UserID())
	}
	if !strings.HasPrefix(fresh.UserID(), "user_") {
		t.Errorf("minted id = %q", fresh.UserID())
	}

	if err := alice.Subscribe(ctx, id); err != nil {
		t.Fatalf("alice Subscribe: %v", err)
	}
	if err := fresh.Subscribe(ctx, id); err != nil {
		t.Fatalf("fresh Subscribe: %v", err)
	}
	if err := alice.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}

	if _, err := c.UpdateCamera(ctx, id, "alice", models.Camera{Position: models.Vector3{X: 9}}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.AppendChat(ctx, id, fresh.UserID(), "hello"); err != nil {
		t.Fatal(err)
	}

	if u := nextUpdate(t, fresh); u.Kind != models.KindCamera || u.OriginUserID != "alice" {
		t.Errorf("fresh got %+v, want alice's camera", u)
	}
	if u := nextUpdate(t, alice); u.Kind != models.KindChat {
		t.Errorf("alice got %+v, want the chat (her camera change is not echoed)", u)
	}

	if err := alice.SetUserName(ctx, "Alice"); err != nil {
		t.Fatalf("SetUserName: %v", err)
	}
	if u, _ := c.GetUser(ctx, "alice"); u == nil || u.Name != "Alice" {
		t.Errorf("directory entry = %+v", u)
	}

	if err := fresh.Subscribe(ctx, ""); err == nil {
		t.Error("Subscribe with empty project id succeeded")
	}
}

func TestFollow(t *testing.T) {
	base, wsURL := startServer(t)
	c := New(Config{BaseURL: base, Breaker: BreakerConfig{Name: "test-follow"}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	followed, _ := c.Create(ctx, "followed")
	other, _ := c.Create(ctx, "other")

	bob, err := Dial(ctx, wsURL, "bob")
	if err != nil {
		t.Fatal(err)
	}
	defer bob.Close()
	if err := bob.Subscribe(ctx, other); err != nil {
		t.Fatal(err)
	}
	// Queued on bob's socket before Follow starts; Follow must skip it.
	if _, err := c.UpdateTitle(ctx, other, "carol", "noise"); err != nil {
		t.Fatal(err)
	}

	got := make(chan models.ProjectUpdate, 16)
	errCh := make(chan error, 1)
	go func() {
		errCh <- Follow(ctx, bob, followed, func(_ context.Context, u models.ProjectUpdate) { got <- u })
	}()

	// Follow joins asynchronously; keep writing until one arrives.
	deadline := time.After(3 * time.Second)
	for {
		if _, err := c.AppendChat(ctx, followed, "alice", "ping"); err != nil {
			t.Fatal(err)
		}
		select {
		case u := <-got:
			if u.ProjectID != followed || u.Kind != models.KindChat {
				t.Errorf("Follow delivered %+v", u)
			}
			cancel()
			if err := <-errCh; !errors.Is(err, context.Canceled) {
				t.Errorf("Follow returned %v", err)
			}
			return
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("no update delivered through Follow")
		}
	}
}

func TestSocket_CloseFailsPendingWork(t *testing.T) {
	_, wsURL := startServer(t)
	s, err := Dial(context.Background(), wsURL, "")
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed")
	}
	if err := s.Subscribe(context.Background(), "p"); !errors.Is(err, ErrSocketClosed) {
		t.Errorf("Subscribe after Close = %v, want ErrSocketClosed", err)
	}
	if _, ok := <-s.Updates(); ok {
		t.Error("Updates not closed")
	}
}

func TestEditorsStayInSync(t *testing.T) {
	base, wsURL := startServer(t)
	c := New(Config{BaseURL: base, Breaker: BreakerConfig{Name: "test-editors"}})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	id, err := c.Create(ctx, "Housing")
	if err != nil {
		t.Fatal(err)
	}

	alice, err := Dial(ctx, wsURL, "alice")
	if err != nil {
		t.Fatal(err)
	}
	defer alice.Close()
	bob, err := Dial(ctx, wsURL, "bob")
	if err != nil {
		t.Fatal(err)
	}
	defer bob.Close()

	cameras := make(chan models.Camera, 4)
	bobEd := pipeline.NewEditor(ctx, c, id, pipeline.WithUserID(bob.UserID()),
		pipeline.OnCameraUpdate(func(cam models.Camera) { cameras <- cam }))
	defer bobEd.Close()
	if err := bobEd.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := bob.Subscribe(ctx, id); err != nil {
		t.Fatal(err)
	}
	go func() { _ = Follow(ctx, bob, id, bobEd.HandleUpdate) }()

	if err := alice.Subscribe(ctx, id); err != nil {
		t.Fatal(err)
	}
	aliceEd := pipeline.NewEditor(ctx, c, id, pipeline.WithUserID(alice.UserID()), pipeline.WithQuietPeriod(20*time.Millisecond))
	defer aliceEd.Close()
	if err := aliceEd.Load(ctx); err != nil {
		t.Fatal(err)
	}

	final := models.Camera{Position: models.Vector3{X: 4, Y: 0, Z: 3}}
	_ = aliceEd.SetCamera(models.Camera{Position: models.Vector3{X: 1, Z: 5}})
	_ = aliceEd.SetCamera(models.Camera{Position: models.Vector3{X: 2, Z: 4}})
	_ = aliceEd.SetCamera(final)

	select {
	case got := <-cameras:
		if got != final {
			t.Errorf("bob saw camera %+v, want %+v", got, final)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("bob never saw the camera change")
	}
	if got := bobEd.Document().Camera; got != final {
		t.Errorf("bob's document camera = %+v", got)
	}

	if err := aliceEd.AppendChat(ctx, "looks good"); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for len(bobEd.Document().ChatLog) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("bob never saw the chat message")
		}
		time.Sleep(10 * time.Millisecond)
	}
	select {
	case u := <-alice.Updates():
		t.Errorf("alice received her own update: %+v", u)
	default:
	}
}
