// Package server defines the wire format of the realtime channel: a JSON
// envelope with an event name and an event-specific payload.
package server

import (
	"encoding/json"
	"strings"

	"github.com/mindmesh/mindmesh/internal/mindmap"
)

// Inbound event names (client to server).
const (
	EventJoinMindMap   = "joinMindMap"
	EventLeaveMindMap  = "leaveMindMap"
	EventUpdateMindMap = "updateMindMap"
	EventSelectNode    = "selectNode"
	EventCursorMove    = "cursorMove"
)

// Outbound event names (server to room members).
const (
	EventMindMapUpdated = "mindMapUpdated"
	EventNodeSelected   = "nodeSelected"
	EventCursorMoved    = "cursorMoved"
	EventNewMessage     = "newMessage"
)

// Envelope frames every realtime message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomRef is the payload of join and leave events.
type RoomRef struct {
	MindMapID string `json:"mindMapId"`
}

// UpdateMindMap carries a full replacement of a document's content.
type UpdateMindMap struct {
	MindMapID   string               `json:"mindMapId"`
	Nodes       []mindmap.Node       `json:"nodes"`
	Connections []mindmap.Connection `json:"connections"`
}

// MindMapUpdated is rebroadcast to the sender's peers after a successful
// realtime update.
type MindMapUpdated struct {
	Nodes       []mindmap.Node       `json:"nodes"`
	Connections []mindmap.Connection `json:"connections"`
}

// SelectNode announces that the sender highlighted a node.
type SelectNode struct {
	MindMapID string `json:"mindMapId"`
	NodeID    string `json:"nodeId"`
}

// NodeSelected is the relayed form of SelectNode, stamped with the sender's
// session id.
type NodeSelected struct {
	NodeID string `json:"nodeId"`
	UserID string `json:"userId"`
}

// CursorMove reports the sender's cursor position. High-frequency and
// ephemeral: never persisted, never rate limited.
type CursorMove struct {
	MindMapID string  `json:"mindMapId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// CursorMoved is the relayed form of CursorMove.
type CursorMoved struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	UserID string  `json:"userId"`
}

func encodeEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// isExpectedCloseError checks if an error is routine during connection
// teardown.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
