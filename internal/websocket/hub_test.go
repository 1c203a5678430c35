// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package websocket

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/modelview/internal/logging"
	"github.com/tomtom215/modelview/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "disabled", Output: io.Discard})
}

// newTestClient builds a registered client without a network connection.
func newTestClient(t *testing.T, h *Hub, userID string) *Client {
	t.Helper()
	c := NewClient(context.Background(), h, nil, userID)
	h.Register(c)
	return c
}

// drain returns every message currently queued for c.
func drain(c *Client) []Message {
	var out []Message
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func projectUpdates(msgs []Message) []models.ProjectUpdate {
	var out []models.ProjectUpdate
	for _, m := range msgs {
		if m.Type == MessageTypeProjectUpdate {
			out = append(out, m.Data.(models.ProjectUpdate))
		}
	}
	return out
}

func TestHub_FanoutExcludesOrigin(t *testing.T) {
	t.Parallel()

	h := NewHub(HubConfig{}, nil)
	alice := newTestClient(t, h, "alice")
	bob := newTestClient(t, h, "bob")
	carol := newTestClient(t, h, "carol")

	for _, c := range []*Client{alice, bob} {
		if err := h.Join(c, "p1", ""); err != nil {
			t.Fatalf("Join: %v", err)
		}
	}
	if err := h.Join(carol, "p2", ""); err != nil {
		t.Fatalf("Join: %v", err)
	}

	res := h.fanout(models.ProjectUpdate{ProjectID: "p1", Kind: models.KindCamera, OriginUserID: "alice"})
	if res.Delivered != 1 || res.Excluded != 1 || res.Dropped != 0 {
		t.Errorf("fanout result = %+v, want 1 delivered, 1 excluded", res)
	}

	if got := projectUpdates(drain(alice)); len(got) != 0 {
		t.Errorf("origin received %d updates, want 0", len(got))
	}
	got := projectUpdates(drain(bob))
	if len(got) != 1 || got[0].Kind != models.KindCamera {
		t.Errorf("bob received %+v, want one camera update", got)
	}
	if got := projectUpdates(drain(carol)); len(got) != 0 {
		t.Errorf("member of another room received %d updates", len(got))
	}
}

func TestHub_FanoutWithoutOriginReachesWholeRoom(t *testing.T) {
	t.Parallel()

	h := NewHub(HubConfig{}, nil)
	alice := newTestClient(t, h, "alice")
	bob := newTestClient(t, h, "bob")
	_ = h.Join(alice, "p1", "")
	_ = h.Join(bob, "p1", "")

	res := h.fanout(models.ProjectUpdate{ProjectID: "p1", Kind: models.KindSTL})
	if res.Delivered != 2 || res.Excluded != 0 {
		t.Errorf("fanout result = %+v, want 2 delivered", res)
	}
}

func TestHub_FanoutExcludesEverySessionOfOriginUser(t *testing.T) {
	t.Parallel()

	h := NewHub(HubConfig{}, nil)
	tab1 := newTestClient(t, h, "alice")
	tab2 := newTestClient(t, h, "alice")
	bob := newTestClient(t, h, "bob")
	for _, c := range []*Client{tab1, tab2, bob} {
		_ = h.Join(c, "p1", "")
	}

	res := h.fanout(models.ProjectUpdate{ProjectID: "p1", Kind: models.KindChat, OriginUserID: "alice"})
	if res.Delivered != 1 || res.Excluded != 2 {
		t.Errorf("fanout result = %+v, want 1 delivered, 2 excluded", res)
	}
}

func TestHub_FanoutEmptyRoom(t *testing.T) {
	t.Parallel()

	h := NewHub(HubConfig{}, nil)
	res := h.fanout(models.ProjectUpdate{ProjectID: "nobody-here", Kind: models.KindChat})
	if res != (FanoutResult{}) {
		t.Errorf("fanout result = %+v, want zero", res)
	}
}

func TestHub_JoinRebindsIdentity(t *testing.T) {
	t.Parallel()

	h := NewHub(HubConfig{}, nil)
	c := newTestClient(t, h, "user_minted")
	if err := h.Join(c, "p1", "alice"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if got := c.UserID(); got != "alice" {
		t.Errorf("UserID() = %q, want alice", got)
	}

	res := h.fanout(models.ProjectUpdate{ProjectID: "p1", Kind: models.KindChat, OriginUserID: "alice"})
	if res.Excluded != 1 {
		t.Errorf("rebound session not excluded: %+v", res)
	}
}

func TestHub_RoomLifecycle(t *testing.T) {
	t.Parallel()

	h := NewHub(HubConfig{}, nil)
	alice := newTestClient(t, h, "alice")
	bob := newTestClient(t, h, "bob")

	_ = h.Join(alice, "p1", "")
	_ = h.Join(alice, "p1", "") // idempotent
	_ = h.Join(bob, "p1", "")
	_ = h.Join(alice, "p2", "")

	if got := h.Members("p1"); len(got) != 2 || got[0] != "alice" || got[1] != "bob" {
		t.Errorf("Members(p1) = %v, want [alice bob]", got)
	}
	if h.RoomCount() != 2 {
		t.Errorf("RoomCount() = %d, want 2", h.RoomCount())
	}

	_ = h.Leave(bob, "p1")
	_ = h.Leave(bob, "p1") // not a member any more
	if got := h.Members("p1"); len(got) != 1 {
		t.Errorf("Members(p1) after leave = %v", got)
	}

	h.Unregister(alice)
	if h.RoomCount() != 0 {
		t.Errorf("RoomCount() after disconnect = %d, want 0", h.RoomCount())
	}
	if h.ClientCount() != 1 {
		t.Errorf("ClientCount() = %d, want 1", h.ClientCount())
	}

	// Send channel closed; a second Unregister is a no-op.
	for range alice.send {
	}
	h.Unregister(alice)
}

func TestHub_RoomOpsOnUnregisteredClient(t *testing.T) {
	t.Parallel()

	h := NewHub(HubConfig{}, nil)
	c := newTestClient(t, h, "alice")
	h.Unregister(c)

	if err := h.Join(c, "p1", ""); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Join after unregister = %v, want ErrNotRegistered", err)
	}
	if err := h.Leave(c, "p1"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("Leave after unregister = %v, want ErrNotRegistered", err)
	}
	if h.sendTo(c, Message{Type: MessageTypePong}) {
		t.Error("sendTo succeeded on unregistered client")
	}
}

func TestHub_BroadcastToFullClient(t *testing.T) {
	t.Parallel()

	h := NewHub(HubConfig{SendBuffer: 1}, nil)
	slow := newTestClient(t, h, "slow")
	fast := newTestClient(t, h, "fast")
	_ = h.Join(slow, "p1", "")
	_ = h.Join(fast, "p1", "")

	// Fill slow's queue.
	slow.send <- Message{Type: MessageTypePong}

	res := h.fanout(models.ProjectUpdate{ProjectID: "p1", Kind: models.KindChat})
	if res.Delivered != 1 || res.Dropped != 1 {
		t.Errorf("fanout result = %+v, want 1 delivered, 1 dropped", res)
	}
	if h.ClientCount() != 1 {
		t.Errorf("slow client not disconnected, ClientCount() = %d", h.ClientCount())
	}
	if got := h.Members("p1"); len(got) != 1 || got[0] != "fast" {
		t.Errorf("Members(p1) = %v, want [fast]", got)
	}
}

func TestHub_RunWithContext(t *testing.T) {
	t.Parallel()

	h := NewHub(HubConfig{}, nil)
	bob := newTestClient(t, h, "bob")
	_ = h.Join(bob, "p1", "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.RunWithContext(ctx) }()

	h.HandleProjectUpdate(ctx, models.ProjectUpdate{ProjectID: "p1", Kind: models.KindAnnotation, OriginUserID: "alice"})

	select {
	case msg := <-bob.send:
		if msg.Type != MessageTypeProjectUpdate {
			t.Errorf("message type = %q, want projectUpdate", msg.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("update not delivered")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	if h.ClientCount() != 0 {
		t.Errorf("ClientCount() after shutdown = %d, want 0", h.ClientCount())
	}
	// Publishing after shutdown must not block.
	h.HandleProjectUpdate(context.Background(), models.ProjectUpdate{ProjectID: "p1", Kind: models.KindChat})
}

func TestHub_HandleProjectUpdateQueueFull(t *testing.T) {
	t.Parallel()

	h := NewHub(HubConfig{BroadcastBuffer: 1, EnqueueTimeout: 10 * time.Millisecond}, nil)
	h.HandleProjectUpdate(context.Background(), models.ProjectUpdate{ProjectID: "p1", Kind: models.KindChat})

	start := time.Now()
	h.HandleProjectUpdate(context.Background(), models.ProjectUpdate{ProjectID: "p1", Kind: models.KindChat})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("HandleProjectUpdate blocked for %v", elapsed)
	}
	if len(h.broadcast) != 1 {
		t.Errorf("queue length = %d, want 1", len(h.broadcast))
	}
}

func TestHub_ConcurrentMembershipAndFanout(t *testing.T) {
	t.Parallel()

	h := NewHub(HubConfig{SendBuffer: 4096}, nil)
	clients := make([]*Client, 20)
	for i := range clients {
		clients[i] = newTestClient(t, h, "u")
	}

	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = h.Join(c, "p1", "")
				_ = h.Leave(c, "p1")
			}
		}(c)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 100; j++ {
			h.fanout(models.ProjectUpdate{ProjectID: "p1", Kind: models.KindCamera})
		}
	}()
	wg.Wait()

	if h.RoomCount() != 0 {
		t.Errorf("RoomCount() = %d, want 0 after balanced join/leave", h.RoomCount())
	}
}

func TestGetShutdownReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ShutdownReason
	}{
		{"canceled", context.Canceled, ShutdownReasonCanceled},
		{"deadline", context.DeadlineExceeded, ShutdownReasonDeadlineExceeded},
		{"other", errors.New("boom"), ShutdownReasonUnknown},
		{"nil", nil, ShutdownReasonUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getShutdownReason(tt.err); got != tt.want {
				t.Errorf("getShutdownReason(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestResolveIdentity(t *testing.T) {
	t.Parallel()

	now := time.UnixMilli(1700000000000)
	tests := []struct {
		name       string
		presented  string
		wantMinted bool
	}{
		{"valid kept", "user_abc_123", false},
		{"empty minted", "", true},
		{"whitespace minted", "has space", true},
		{"too long minted", strings.Repeat("a", 200), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, minted := ResolveIdentity(tt.presented, now)
			if minted != tt.wantMinted {
				t.Errorf("minted = %v, want %v", minted, tt.wantMinted)
			}
			if !minted && id != tt.presented {
				t.Errorf("id = %q, want %q", id, tt.presented)
			}
			if minted && (len(id) != len("user_")+12+1+13 || id[:5] != "user_") {
				t.Errorf("minted id %q has unexpected shape", id)
			}
		})
	}

	if a, b := MintIdentity(now), MintIdentity(now); a == b {
		t.Errorf("MintIdentity returned duplicate %q", a)
	}
}

func TestParseUnsubscribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{`"p1"`, "p1", false},
		{`{"projectId":"p2"}`, "p2", false},
		{`""`, "", true},
		{`{}`, "", true},
		{`42`, "", true},
	}
	for _, tt := range tests {
		got, err := parseUnsubscribe([]byte(tt.raw))
		if (err != nil) != tt.wantErr {
			t.Errorf("parseUnsubscribe(%s) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseUnsubscribe(%s) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
