// Package testhelpers provides shared utilities for integration-testing the
// MindMesh server: a full in-process stack, WebSocket dialing, and event
// read/expect helpers.
package testhelpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mindmesh/mindmesh/internal/config"
	"github.com/mindmesh/mindmesh/internal/mindmap"
	"github.com/mindmesh/mindmesh/internal/server"
)

// Stack is a complete server assembled the same way cmd/server does it,
// running on an httptest listener.
type Stack struct {
	Server *httptest.Server
	Docs   *mindmap.DocumentStore
	Chat   *mindmap.ChatStore
	Hub    *server.Hub
}

// NewStack builds and starts a full stack and registers its teardown with t.
func NewStack(t *testing.T) *Stack {
	t.Helper()

	cfg := config.New()
	cfg.AllowedOrigins = []string{"*"}
	logger := zap.NewNop()

	docs := mindmap.NewDocumentStore()
	chat := mindmap.NewChatStore()
	hub := server.NewHub(docs, logger)
	go hub.Run()

	handler := server.NewHandler(docs, chat, hub, cfg, logger)
	ts := httptest.NewServer(server.NewRouter(handler, cfg, logger))

	t.Cleanup(func() {
		ts.Close()
		_ = hub.Shutdown(2 * time.Second)
	})

	return &Stack{Server: ts, Docs: docs, Chat: chat, Hub: hub}
}

// URL returns the base HTTP URL of the stack.
func (s *Stack) URL() string {
	return s.Server.URL
}

// DialWS opens a WebSocket connection to the stack's /ws endpoint.
func (s *Stack) DialWS(t *testing.T) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(s.Server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{
		"Origin": []string{"http://localhost:3000"},
	})
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// SendEvent writes one enveloped event to the connection.
func SendEvent(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("Failed to marshal %s payload: %v", event, err)
	}
	frame, err := json.Marshal(server.Envelope{Event: event, Data: raw})
	if err != nil {
		t.Fatalf("Failed to marshal %s envelope: %v", event, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("Failed to send %s: %v", event, err)
	}
}

// JoinRoom subscribes the connection to a document's room and waits until the
// hub has processed the membership change.
func JoinRoom(t *testing.T, s *Stack, conn *websocket.Conn, docID string, wantMembers int) {
	t.Helper()

	SendEvent(t, conn, server.EventJoinMindMap, server.RoomRef{MindMapID: docID})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Hub.RoomMembers(docID) >= wantMembers {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Room %s never reached %d members", docID, wantMembers)
}

// ReadEvent reads the next envelope from the connection within the timeout.
func ReadEvent(t *testing.T, conn *websocket.Conn, timeout time.Duration) server.Envelope {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}

	var env server.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("Failed to decode envelope %s: %v", raw, err)
	}
	return env
}

// DecodeEventData unpacks an envelope payload into dest.
func DecodeEventData(t *testing.T, env server.Envelope, dest any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dest); err != nil {
		t.Fatalf("Failed to decode %s payload: %v", env.Event, err)
	}
}

// ExpectNoEvent asserts that nothing arrives on the connection within the
// timeout.
func ExpectNoEvent(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, raw, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no event, but received %s", raw)
	}
	if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	t.Fatalf("Unexpected error while waiting for absence of events: %v", err)
}
