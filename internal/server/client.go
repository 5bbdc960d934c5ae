// Package server manages individual WebSocket clients, handling read/write
// pumps and per-connection lifecycle for the collaboration channel.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 256
)

// Client is one WebSocket connection in the collaboration system. Its id is
// a per-session token used as the userId stamped onto relayed selection and
// cursor events; it is not an identity, just a way for peers to tell
// concurrent editors apart.
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	addr   string
	closed bool
	logger *zap.Logger
}

// NewClient wraps an upgraded WebSocket connection. The send channel is
// buffered so one slow reader cannot stall the hub loop.
func NewClient(conn *websocket.Conn, hub *Hub, addr string, maxMessageSize int64) *Client {
	if conn != nil {
		conn.SetReadLimit(maxMessageSize)
	}
	return &Client{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		hub:    hub,
		addr:   addr,
		logger: hub.logger,
	}
}

// SessionID returns the client's per-connection session token.
func (c *Client) SessionID() string {
	return c.id
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.logger.Warn("closing connection in read pump",
				zap.String("remoteAddr", c.addr), zap.Error(err))
		}
	}()

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Warn("setting read deadline", zap.String("remoteAddr", c.addr), zap.Error(err))
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		c.dispatch(raw)
	}
}

func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.logger.Warn("frame exceeded read limit", zap.String("remoteAddr", c.addr))
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.logger.Info("client closed connection",
			zap.String("sessionId", c.id), zap.String("remoteAddr", c.addr))
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.logger.Info("connection closed",
			zap.String("sessionId", c.id), zap.String("remoteAddr", c.addr))
	default:
		c.logger.Warn("websocket read error",
			zap.String("remoteAddr", c.addr), zap.Error(err))
	}
}

// dispatch decodes one inbound envelope and feeds the matching hub event.
// Malformed or unknown events are logged and dropped; the realtime channel
// has no error replies.
func (c *Client) dispatch(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.logger.Warn("invalid realtime frame",
			zap.String("remoteAddr", c.addr), zap.Error(err))
		return
	}

	switch env.Event {
	case EventJoinMindMap:
		var p RoomRef
		if !c.decodePayload(env, &p) {
			return
		}
		c.hub.enqueue(joinRoom{client: c, docID: p.MindMapID})

	case EventLeaveMindMap:
		var p RoomRef
		if !c.decodePayload(env, &p) {
			return
		}
		c.hub.enqueue(leaveRoom{client: c, docID: p.MindMapID})

	case EventUpdateMindMap:
		var p UpdateMindMap
		if !c.decodePayload(env, &p) {
			return
		}
		c.hub.enqueue(updateDocument{
			sender:      c,
			docID:       p.MindMapID,
			nodes:       p.Nodes,
			connections: p.Connections,
		})

	case EventSelectNode:
		var p SelectNode
		if !c.decodePayload(env, &p) {
			return
		}
		frame, err := encodeEvent(EventNodeSelected, NodeSelected{NodeID: p.NodeID, UserID: c.id})
		if err != nil {
			c.logger.Error("encoding selection relay", zap.Error(err))
			return
		}
		c.hub.enqueue(relay{sender: c, docID: p.MindMapID, frame: frame})

	case EventCursorMove:
		var p CursorMove
		if !c.decodePayload(env, &p) {
			return
		}
		frame, err := encodeEvent(EventCursorMoved, CursorMoved{X: p.X, Y: p.Y, UserID: c.id})
		if err != nil {
			c.logger.Error("encoding cursor relay", zap.Error(err))
			return
		}
		c.hub.enqueue(relay{sender: c, docID: p.MindMapID, frame: frame})

	default:
		c.logger.Debug("unknown realtime event ignored",
			zap.String("event", env.Event), zap.String("remoteAddr", c.addr))
	}
}

func (c *Client) decodePayload(env Envelope, dest any) bool {
	if err := json.Unmarshal(env.Data, dest); err != nil {
		c.logger.Warn("invalid event payload",
			zap.String("event", env.Event),
			zap.String("remoteAddr", c.addr),
			zap.Error(err))
		return false
	}
	return true
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.logger.Warn("closing connection in write pump",
				zap.String("remoteAddr", c.addr), zap.Error(err))
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				// The hub closed the channel on unregister.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				if !isExpectedCloseError(err) {
					c.logger.Warn("websocket write error",
						zap.String("remoteAddr", c.addr), zap.Error(err))
				}
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
