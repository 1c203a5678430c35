// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/modelview/internal/logging"
	"github.com/tomtom215/modelview/internal/models"
	ws "github.com/tomtom215/modelview/internal/websocket"
)

const (
	socketWriteWait  = 10 * time.Second
	handshakeTimeout = 10 * time.Second
	requestTimeout   = 10 * time.Second
	updateBuffer     = 64
)

// ErrSocketClosed is returned for requests on a closed Socket.
var ErrSocketClosed = errors.New("client: socket closed")

// Socket is a duplex connection to the room gateway.
type Socket struct {
	conn   *websocket.Conn
	userID string

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan ws.AckPayload
	seq     atomic.Uint64

	updates   chan models.ProjectUpdate
	done      chan struct{}
	closeOnce sync.Once
	err       error
}

// Dial connects to the gateway at wsURL, presenting userID when non-empty
// so a returning client keeps its identity. The assigned id is available
// from UserID once Dial returns.
func Dial(ctx context.Context, wsURL, userID string) (*Socket, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("parse socket url: %w", err)
	}
	if userID != "" {
		q := u.Query()
		q.Set("userId", userID)
		u.RawQuery = q.Encode()
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	assigned, err := readIdentity(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	s := &Socket{
		conn:    conn,
		userID:  assigned,
		pending: make(map[string]chan ws.AckPayload),
		updates: make(chan models.ProjectUpdate, updateBuffer),
		done:    make(chan struct{}),
	}
	go s.readLoop()
	logging.Debug().Str("user_id", assigned).Msg("Socket connected")
	return s, nil
}

// readIdentity consumes the userId frame the server sends first.
func readIdentity(conn *websocket.Conn) (string, error) {
	if err := conn.SetReadDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return "", err
	}
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return "", fmt.Errorf("read identity: %w", err)
	}
	var env ws.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("decode identity frame: %w", err)
	}
	if env.Type != ws.MessageTypeUserID {
		return "", fmt.Errorf("expected %s frame, got %q", ws.MessageTypeUserID, env.Type)
	}
	var id string
	if err := json.Unmarshal(env.Data, &id); err != nil || id == "" {
		return "", fmt.Errorf("decode identity: %v", err)
	}
	return id, conn.SetReadDeadline(time.Time{})
}

// UserID is the identity the server assigned. Persist it and present it on
// the next Dial.
func (s *Socket) UserID() string { return s.userID }

// Updates delivers projectUpdate notifications for joined rooms. It is
// closed when the connection ends.
func (s *Socket) Updates() <-chan models.ProjectUpdate { return s.updates }

// Done is closed when the connection ends.
func (s *Socket) Done() <-chan struct{} { return s.done }

// Err reports why the connection ended, or nil while it is open.
func (s *Socket) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Subscribe joins the project's room and binds this socket's identity.
func (s *Socket) Subscribe(ctx context.Context, projectID string) error {
	return s.request(ctx, ws.MessageTypeSubscribe, ws.SubscribePayload{ProjectID: projectID, UserID: s.userID})
}

// Unsubscribe leaves the project's room.
func (s *Socket) Unsubscribe(ctx context.Context, projectID string) error {
	return s.request(ctx, ws.MessageTypeUnsubscribe, projectID)
}

// SetUserName records a display name for this socket's identity.
func (s *Socket) SetUserName(ctx context.Context, name string) error {
	return s.request(ctx, ws.MessageTypeSetUserName, ws.SetUserNamePayload{UserID: s.userID, UserName: name})
}

// Ping round-trips an application-level ping.
func (s *Socket) Ping(ctx context.Context) error {
	return s.request(ctx, ws.MessageTypePing, nil)
}

func (s *Socket) request(ctx context.Context, typ string, data interface{}) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, requestTimeout)
		defer cancel()
	}

	id := strconv.FormatUint(s.seq.Add(1), 10)
	ch := make(chan ws.AckPayload, 1)

	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		return ErrSocketClosed
	default:
	}
	s.pending[id] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	if err := s.write(ws.Message{Type: typ, ID: id, Data: data}); err != nil {
		return err
	}

	select {
	case ack := <-ch:
		if !ack.Success {
			return fmt.Errorf("%s rejected: %s", typ, ack.Error)
		}
		return nil
	case <-s.done:
		return ErrSocketClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Socket) write(msg ws.Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msg.Type, err)
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(socketWriteWait)); err != nil {
		return err
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return fmt.Errorf("write %s: %w", msg.Type, err)
	}
	return nil
}

func (s *Socket) readLoop() {
	defer close(s.updates)
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.shutdown(err)
			return
		}
		var env ws.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logging.Warn().Err(err).Msg("Socket: malformed frame")
			continue
		}
		s.handle(env)
	}
}

func (s *Socket) handle(env ws.Envelope) {
	switch env.Type {
	case ws.MessageTypeProjectUpdate:
		var u models.ProjectUpdate
		if err := json.Unmarshal(env.Data, &u); err != nil {
			logging.Warn().Err(err).Msg("Socket: malformed projectUpdate")
			return
		}
		select {
		case s.updates <- u:
		default:
			// The follower refetches the whole document, so a dropped
			// notification is repaired by the next one.
			logging.Warn().Str("project_id", u.ProjectID).Str("kind", string(u.Kind)).Msg("Socket: update buffer full, dropping notification")
		}

	case ws.MessageTypeAck:
		var ack ws.AckPayload
		if err := json.Unmarshal(env.Data, &ack); err != nil {
			ack = ws.AckPayload{Error: "malformed ack"}
		}
		s.resolve(env.ID, ack)

	case ws.MessageTypePong:
		s.resolve(env.ID, ws.AckPayload{Success: true})

	case ws.MessageTypeError:
		var p ws.ErrorPayload
		_ = json.Unmarshal(env.Data, &p)
		if env.ID != "" {
			s.resolve(env.ID, ws.AckPayload{Error: p.Code + ": " + p.Message})
			return
		}
		logging.Warn().Str("code", p.Code).Str("message", p.Message).Msg("Socket: server error")

	case ws.MessageTypeUserID:
		// Re-sent identity is ignored; the handshake already bound it.

	default:
		logging.Debug().Str("type", env.Type).Msg("Socket: ignoring frame")
	}
}

func (s *Socket) resolve(id string, ack ws.AckPayload) {
	s.mu.Lock()
	ch, ok := s.pending[id]
	s.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- ack:
	default:
	}
}

func (s *Socket) shutdown(err error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.err = err
		close(s.done)
		s.mu.Unlock()
		_ = s.conn.Close()
	})
}

// Close sends a close frame and tears the connection down.
func (s *Socket) Close() error {
	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	s.shutdown(ErrSocketClosed)
	return nil
}
