// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package websocket

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/tomtom215/modelview/internal/logging"
	"github.com/tomtom215/modelview/internal/metrics"
	"github.com/tomtom215/modelview/internal/validation"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer (512KB)
	maxMessageSize = 512 * 1024

	// Bounds a setUserName directory write.
	directoryTimeout = 5 * time.Second
)

var clientIDCounter atomic.Uint64

// Client is one connected browser session.
type Client struct {
	id      uint64
	hub     *Hub
	conn    *websocket.Conn
	send    chan Message
	limiter *rate.Limiter
	ctx     context.Context

	// Guarded by hub.mu.
	userID string
	rooms  map[string]struct{}
}

// NewClient wraps an upgraded connection bound to userID. ctx carries
// request-scoped logging fields; its cancellation is ignored.
func NewClient(ctx context.Context, hub *Hub, conn *websocket.Conn, userID string) *Client {
	limit := rate.Inf
	if hub.cfg.MessageRate > 0 {
		limit = rate.Limit(hub.cfg.MessageRate)
	}
	burst := hub.cfg.MessageBurst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		id:      clientIDCounter.Add(1),
		hub:     hub,
		conn:    conn,
		send:    make(chan Message, hub.cfg.SendBuffer),
		limiter: rate.NewLimiter(limit, burst),
		ctx:     context.WithoutCancel(ctx),
		userID:  userID,
		rooms:   make(map[string]struct{}),
	}
}

// ID returns the connection's process-unique id.
func (c *Client) ID() uint64 { return c.id }

// UserID returns the identity currently bound to the connection.
func (c *Client) UserID() string {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	return c.userID
}

// Connect registers an upgraded connection, resolves its identity from
// presentedID, sends the userId message, and starts the pumps.
func (h *Hub) Connect(ctx context.Context, conn *websocket.Conn, presentedID string) *Client {
	userID, minted := ResolveIdentity(presentedID, h.now())
	c := NewClient(ctx, h, conn, userID)
	h.Register(c)
	h.sendTo(c, Message{Type: MessageTypeUserID, Data: userID})

	logging.Ctx(ctx).Info().
		Uint64("client_id", c.id).
		Str("user_id", userID).
		Bool("minted", minted).
		Str("remote_addr", conn.RemoteAddr().String()).
		Msg("WebSocket client connected")

	c.Start()
	return c
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		if err := c.conn.Close(); err != nil {
			logging.Debug().Err(err).Uint64("client_id", c.id).Msg("Error closing WebSocket connection")
		}
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("Failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues("read").Inc()
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("WebSocket read error")
			}
			return
		}

		if !c.limiter.Allow() {
			metrics.WSErrors.WithLabelValues("rate_limited").Inc()
			c.sendError("", ErrCodeRateLimited, "too many messages")
			continue
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Type == "" {
			metrics.WSErrors.WithLabelValues("decode").Inc()
			c.sendError("", ErrCodeBadMessage, "malformed message")
			continue
		}
		metrics.WSMessagesReceived.WithLabelValues(env.Type).Inc()
		c.dispatch(env)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			logging.Debug().Err(err).Uint64("client_id", c.id).Msg("Error closing WebSocket connection in write pump")
		}
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("Failed to set write deadline")
				return
			}
			if !ok {
				// The hub closed the channel
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Debug().Err(err).Msg("Failed to write close message")
				}
				return
			}

			payload, err := json.Marshal(msg)
			if err != nil {
				logging.Error().Err(err).Str("type", msg.Type).Msg("Failed to encode WebSocket message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("Failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins the client's read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) dispatch(env Envelope) {
	switch env.Type {
	case MessageTypeSubscribe:
		var p SubscribePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			c.ack(env.ID, err)
			return
		}
		if verr := validation.ValidateStruct(&p); verr != nil {
			c.ack(env.ID, verr)
			return
		}
		c.ack(env.ID, c.hub.Join(c, p.ProjectID, p.UserID))

	case MessageTypeUnsubscribe:
		projectID, err := parseUnsubscribe(env.Data)
		if err != nil {
			c.ack(env.ID, err)
			return
		}
		c.ack(env.ID, c.hub.Leave(c, projectID))

	case MessageTypeSetUserName:
		c.ack(env.ID, c.setUserName(env.Data))

	case MessageTypePing:
		c.hub.sendTo(c, Message{Type: MessageTypePong, ID: env.ID})

	default:
		c.sendError(env.ID, ErrCodeUnknownType, "unknown message type: "+env.Type)
	}
}

func (c *Client) setUserName(raw json.RawMessage) error {
	var p SetUserNamePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if verr := validation.ValidateStruct(&p); verr != nil {
		return verr
	}
	if c.hub.users == nil {
		return errNoDirectory
	}

	ctx, cancel := context.WithTimeout(c.ctx, directoryTimeout)
	defer cancel()
	if _, err := c.hub.users.SetUserName(ctx, p.UserID, p.UserName); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", p.UserID).Msg("setUserName failed")
		return err
	}
	return nil
}

func (c *Client) ack(id string, err error) {
	payload := AckPayload{Success: err == nil}
	if err != nil {
		payload.Error = err.Error()
	}
	c.hub.sendTo(c, Message{Type: MessageTypeAck, ID: id, Data: payload})
}

func (c *Client) sendError(id, code, msg string) {
	c.hub.sendTo(c, Message{Type: MessageTypeError, ID: id, Data: ErrorPayload{Code: code, Message: msg}})
}
