// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package websocket

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/modelview/internal/logging"
	"github.com/tomtom215/modelview/internal/metrics"
	"github.com/tomtom215/modelview/internal/models"
)

// UserDirectory records display names for setUserName.
type UserDirectory interface {
	SetUserName(ctx context.Context, userID, name string) (models.User, error)
}

// HubConfig tunes buffers and inbound limits.
type HubConfig struct {
	// SendBuffer is the per-client outbound queue length.
	SendBuffer int
	// BroadcastBuffer is the queue between the event bus and the fan-out loop.
	BroadcastBuffer int
	// EnqueueTimeout bounds how long a publisher waits on a full broadcast queue.
	EnqueueTimeout time.Duration
	// MessageRate and MessageBurst limit inbound frames per connection.
	// A non-positive rate disables limiting.
	MessageRate  float64
	MessageBurst int
	// MaxMessageSize caps inbound frame size in bytes.
	MaxMessageSize int64
}

// DefaultHubConfig returns production defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		SendBuffer:      256,
		BroadcastBuffer: 256,
		EnqueueTimeout:  time.Second,
		MessageRate:     50,
		MessageBurst:    100,
		MaxMessageSize:  maxMessageSize,
	}
}

// ErrNotRegistered is returned for room operations on a client the hub no
// longer tracks.
var ErrNotRegistered = errors.New("websocket: client not registered")

// Hub maintains the set of active clients and project rooms and fans
// project updates out to room members.
type Hub struct {
	// Guards clients, rooms, and each Client's userID/rooms fields.
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	broadcast chan models.ProjectUpdate
	done      chan struct{}
	doneOnce  sync.Once

	users UserDirectory
	cfg   HubConfig
	now   func() time.Time
}

// NewHub creates a hub. users may be nil, in which case setUserName frames
// are acknowledged with an error.
func NewHub(cfg HubConfig, users UserDirectory) *Hub {
	def := DefaultHubConfig()
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = def.SendBuffer
	}
	if cfg.BroadcastBuffer <= 0 {
		cfg.BroadcastBuffer = def.BroadcastBuffer
	}
	if cfg.EnqueueTimeout <= 0 {
		cfg.EnqueueTimeout = def.EnqueueTimeout
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = def.MaxMessageSize
	}
	return &Hub{
		clients:   make(map[*Client]struct{}),
		rooms:     make(map[string]map[*Client]struct{}),
		broadcast: make(chan models.ProjectUpdate, cfg.BroadcastBuffer),
		done:      make(chan struct{}),
		users:     users,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Register adds a client to the registry.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(n))
	logging.Debug().Uint64("client_id", c.id).Str("user_id", c.UserID()).Int("total_clients", n).Msg("Client registered")
}

// Unregister removes a client from every room and closes its send channel.
// Calling it more than once is a no-op.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	left := h.dropLocked(c)
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(n))
	metrics.WSRoomMemberships.Sub(float64(left))
	logging.Debug().Uint64("client_id", c.id).Int("rooms_left", left).Int("total_clients", n).Msg("Client unregistered")
}

// dropLocked removes c from all rooms and the client set and closes its
// send channel. It returns how many rooms c was in. Caller holds h.mu.
func (h *Hub) dropLocked(c *Client) int {
	left := len(c.rooms)
	for projectID := range c.rooms {
		h.removeMemberLocked(projectID, c)
	}
	c.rooms = nil
	delete(h.clients, c)
	close(c.send)
	return left
}

func (h *Hub) removeMemberLocked(projectID string, c *Client) {
	members := h.rooms[projectID]
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, projectID)
	}
}

// Join adds c to the room for projectID. A non-empty userID rebinds the
// client's identity. Joining a room twice is a no-op. The membership is
// visible to fan-out before Join returns.
func (h *Hub) Join(c *Client, projectID, userID string) error {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return ErrNotRegistered
	}
	if userID != "" {
		c.userID = userID
	}
	added := false
	if _, in := c.rooms[projectID]; !in {
		if c.rooms == nil {
			c.rooms = make(map[string]struct{})
		}
		c.rooms[projectID] = struct{}{}
		members, ok := h.rooms[projectID]
		if !ok {
			members = make(map[*Client]struct{})
			h.rooms[projectID] = members
		}
		members[c] = struct{}{}
		added = true
	}
	h.mu.Unlock()

	if added {
		metrics.WSRoomMemberships.Inc()
	}
	logging.Debug().Uint64("client_id", c.id).Str("project_id", projectID).Str("user_id", c.UserID()).Msg("Joined project room")
	return nil
}

// Leave removes c from the room for projectID. Leaving a room the client is
// not in is a no-op.
func (h *Hub) Leave(c *Client, projectID string) error {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return ErrNotRegistered
	}
	_, in := c.rooms[projectID]
	if in {
		delete(c.rooms, projectID)
		h.removeMemberLocked(projectID, c)
	}
	h.mu.Unlock()

	if in {
		metrics.WSRoomMemberships.Dec()
	}
	logging.Debug().Uint64("client_id", c.id).Str("project_id", projectID).Msg("Left project room")
	return nil
}

// BindUser sets the identity a client's fan-out exclusion is keyed on.
func (h *Hub) BindUser(c *Client, userID string) {
	h.mu.Lock()
	c.userID = userID
	h.mu.Unlock()
}

// HandleProjectUpdate is the event bus handler. It queues the update for
// the fan-out loop, waiting up to EnqueueTimeout when the queue is full.
func (h *Hub) HandleProjectUpdate(ctx context.Context, update models.ProjectUpdate) {
	select {
	case h.broadcast <- update:
		return
	default:
	}

	timer := time.NewTimer(h.cfg.EnqueueTimeout)
	defer timer.Stop()
	select {
	case h.broadcast <- update:
	case <-h.done:
		logging.Debug().Str("project_id", update.ProjectID).Msg("Hub stopped, project update dropped")
	case <-ctx.Done():
		metrics.WSErrors.WithLabelValues("broadcast_cancelled").Inc()
	case <-timer.C:
		metrics.WSErrors.WithLabelValues("broadcast_full").Inc()
		logging.Warn().Str("project_id", update.ProjectID).Str("kind", string(update.Kind)).Msg("Broadcast queue full, project update dropped")
	}
}

// RunWithContext drains the broadcast queue until ctx is cancelled, then
// closes every client. It always returns ctx.Err().
func (h *Hub) RunWithContext(ctx context.Context) error {
	logging.Info().Msg("WebSocket hub started")

	for {
		// Priority check so shutdown wins over a busy queue.
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case update := <-h.broadcast:
			h.fanout(update)
		}
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	h.doneOnce.Do(func() { close(h.done) })
	h.logGracefulShutdown(ctx)
	h.closeAllClients()
}

// ShutdownReason classifies why the hub stopped.
type ShutdownReason string

// Shutdown reasons.
const (
	ShutdownReasonCanceled         ShutdownReason = "context_canceled"
	ShutdownReasonDeadlineExceeded ShutdownReason = "deadline_exceeded"
	ShutdownReasonUnknown          ShutdownReason = "unknown"
)

func getShutdownReason(err error) ShutdownReason {
	switch {
	case errors.Is(err, context.Canceled):
		return ShutdownReasonCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return ShutdownReasonDeadlineExceeded
	default:
		return ShutdownReasonUnknown
	}
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	h.mu.RLock()
	clientCount := len(h.clients)
	roomCount := len(h.rooms)
	h.mu.RUnlock()

	logging.Info().
		Str("reason", string(getShutdownReason(ctx.Err()))).
		Int("clients", clientCount).
		Int("rooms", roomCount).
		Int("pending_updates", len(h.broadcast)).
		Msg("WebSocket hub shutting down")
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	memberships := 0
	for c := range h.clients {
		memberships += h.dropLocked(c)
	}
	h.mu.Unlock()

	metrics.WSConnections.Set(0)
	metrics.WSRoomMemberships.Sub(float64(memberships))
}

// FanoutResult counts the outcome of one fan-out pass.
type FanoutResult struct {
	Delivered int
	Excluded  int
	Dropped   int
}

// fanout sends update to every member of its room whose identity differs
// from the origin. Members with a full queue are disconnected.
func (h *Hub) fanout(update models.ProjectUpdate) FanoutResult {
	msg := Message{Type: MessageTypeProjectUpdate, Data: update}
	var res FanoutResult
	var slow []*Client

	h.mu.RLock()
	members := h.rooms[update.ProjectID]
	// Stable order keeps logs and tests deterministic.
	ordered := make([]*Client, 0, len(members))
	for c := range members {
		ordered = append(ordered, c)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].id < ordered[j].id })

	for _, c := range ordered {
		if update.OriginUserID != "" && c.userID == update.OriginUserID {
			res.Excluded++
			continue
		}
		select {
		case c.send <- msg:
			res.Delivered++
		default:
			res.Dropped++
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logging.Warn().Uint64("client_id", c.id).Str("project_id", update.ProjectID).Msg("Client send buffer full, disconnecting")
		metrics.WSErrors.WithLabelValues("send_buffer_full").Inc()
		h.Unregister(c)
	}

	if res.Delivered > 0 {
		metrics.WSMessagesSent.WithLabelValues(MessageTypeProjectUpdate).Add(float64(res.Delivered))
	}
	metrics.RecordFanout(res.Delivered, res.Excluded, res.Dropped)
	logging.Debug().
		Str("project_id", update.ProjectID).
		Str("kind", string(update.Kind)).
		Str("origin", update.OriginUserID).
		Int("delivered", res.Delivered).
		Int("excluded", res.Excluded).
		Int("dropped", res.Dropped).
		Msg("Project update fanned out")
	return res
}

// sendTo queues msg for c. It reports false when c is gone or its queue is
// full. Holding the read lock keeps Unregister from closing c.send mid-send.
func (h *Hub) sendTo(c *Client, msg Message) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- msg:
		metrics.WSMessagesSent.WithLabelValues(msg.Type).Inc()
		return true
	default:
		metrics.WSErrors.WithLabelValues("send_buffer_full").Inc()
		return false
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of non-empty rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// Members returns the user ids bound to the clients in a room, sorted.
func (h *Hub) Members(projectID string) []string {
	h.mu.RLock()
	out := make([]string, 0, len(h.rooms[projectID]))
	for c := range h.rooms[projectID] {
		out = append(out, c.userID)
	}
	h.mu.RUnlock()
	sort.Strings(out)
	return out
}
