// Package server coordinates room membership, realtime event routing, and
// connection cleanup for the MindMesh collaboration channel via the Hub type.
package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mindmesh/mindmesh/internal/mindmap"
)

// Hub routes realtime events among the WebSocket clients subscribed to the
// same document id. A single Run goroutine owns all membership state and
// processes events in arrival order, which is what gives each room its
// delivery-order guarantee.
type Hub struct {
	store  *mindmap.DocumentStore
	logger *zap.Logger

	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	events     chan hubEvent

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// hubEvent is processed exclusively by the Run loop, so event handlers touch
// membership state without locking.
type hubEvent interface{ apply(h *Hub) }

type joinRoom struct {
	client *Client
	docID  string
}

type leaveRoom struct {
	client *Client
	docID  string
}

type updateDocument struct {
	sender      *Client
	docID       string
	nodes       []mindmap.Node
	connections []mindmap.Connection
}

// relay carries a pre-encoded frame delivered to every room member except the
// sender (selection and cursor traffic).
type relay struct {
	sender *Client
	docID  string
	frame  []byte
}

// roomBroadcast carries a pre-encoded frame delivered to the whole room,
// originator included (chat).
type roomBroadcast struct {
	docID string
	frame []byte
}

// roomCount answers a synchronous membership query through the loop.
type roomCount struct {
	docID string
	reply chan int
}

// NewHub creates a Hub bound to the given document store. Call Run in its own
// goroutine before registering clients.
func NewHub(store *mindmap.DocumentStore, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		store:      store,
		logger:     logger,
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan hubEvent),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Register hands a freshly upgraded connection to the hub, which starts its
// read and write pumps.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.ctx.Done():
	}
}

// BroadcastChat fans a stored chat message out to every member of the
// document's room, the poster's own connection included.
func (h *Hub) BroadcastChat(docID string, msg mindmap.ChatMessage) {
	frame, err := encodeEvent(EventNewMessage, msg)
	if err != nil {
		h.logger.Error("encoding chat broadcast", zap.Error(err))
		return
	}
	h.enqueue(roomBroadcast{docID: docID, frame: frame})
}

func (h *Hub) enqueue(ev hubEvent) {
	select {
	case h.events <- ev:
	case <-h.ctx.Done():
	}
}

// Run is the hub's event loop. It handles client registration, room
// membership, and broadcast fan-out, and must be running for the lifetime of
// the server.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			if client == nil {
				h.logger.Warn("nil client registration skipped")
				continue
			}
			h.clients[client] = true
			h.logger.Info("client connected",
				zap.String("sessionId", client.id),
				zap.String("remoteAddr", client.addr),
				zap.Int("clients", len(h.clients)))

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.dropClient(client)

		case ev := <-h.events:
			ev.apply(h)
		}
	}
}

func (ev joinRoom) apply(h *Hub) {
	room := h.rooms[ev.docID]
	if room == nil {
		room = make(map[*Client]bool)
		h.rooms[ev.docID] = room
	}
	room[ev.client] = true
	h.logger.Info("client joined room",
		zap.String("sessionId", ev.client.id),
		zap.String("mindMapId", ev.docID),
		zap.Int("members", len(room)))
}

func (ev leaveRoom) apply(h *Hub) {
	h.removeFromRoom(ev.client, ev.docID)
	h.logger.Info("client left room",
		zap.String("sessionId", ev.client.id),
		zap.String("mindMapId", ev.docID))
}

func (ev updateDocument) apply(h *Hub) {
	if _, err := h.store.ReplaceContent(ev.docID, ev.nodes, ev.connections); err != nil {
		// Unknown document: the event is dropped without telling the sender.
		// The realtime channel has no error path.
		if errors.Is(err, mindmap.ErrNotFound) {
			h.logger.Debug("update for unknown mind map dropped",
				zap.String("mindMapId", ev.docID),
				zap.String("sessionId", ev.sender.id))
			return
		}
		h.logger.Error("applying realtime update", zap.Error(err))
		return
	}

	frame, err := encodeEvent(EventMindMapUpdated, MindMapUpdated{
		Nodes:       ev.nodes,
		Connections: ev.connections,
	})
	if err != nil {
		h.logger.Error("encoding update broadcast", zap.Error(err))
		return
	}
	h.sendToRoom(ev.docID, frame, ev.sender)
}

func (ev relay) apply(h *Hub) {
	h.sendToRoom(ev.docID, ev.frame, ev.sender)
}

func (ev roomBroadcast) apply(h *Hub) {
	h.sendToRoom(ev.docID, ev.frame, nil)
}

func (ev roomCount) apply(h *Hub) {
	ev.reply <- len(h.rooms[ev.docID])
}

// RoomMembers reports how many connections are currently joined to the
// document's room. Because the loop processes events in order, the answer
// reflects every event enqueued before the call.
func (h *Hub) RoomMembers(docID string) int {
	reply := make(chan int, 1)
	h.enqueue(roomCount{docID: docID, reply: reply})
	select {
	case n := <-reply:
		return n
	case <-h.ctx.Done():
		return 0
	}
}

// sendToRoom fans a frame out to the room, skipping the sender when one is
// given. Members whose send buffer is full are dropped.
func (h *Hub) sendToRoom(docID string, frame []byte, sender *Client) {
	room := h.rooms[docID]
	if len(room) == 0 {
		return
	}

	var stalled []*Client
	for member := range room {
		if member == sender {
			continue
		}
		if !h.trySend(member, frame) {
			stalled = append(stalled, member)
		}
	}

	for _, member := range stalled {
		h.logger.Warn("dropping client with full send buffer",
			zap.String("sessionId", member.id),
			zap.String("remoteAddr", member.addr))
		h.dropClient(member)
	}
}

func (h *Hub) trySend(c *Client, frame []byte) bool {
	if c.closed || !h.clients[c] {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// dropClient removes a connection from every room it joined and closes its
// send channel. Peers are not told a member vanished.
func (h *Hub) dropClient(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	c.closed = true

	for docID := range h.rooms {
		h.removeFromRoom(c, docID)
	}
	close(c.send)

	h.logger.Info("client disconnected",
		zap.String("sessionId", c.id),
		zap.String("remoteAddr", c.addr),
		zap.Int("clients", len(h.clients)))
}

func (h *Hub) removeFromRoom(c *Client, docID string) {
	room := h.rooms[docID]
	if room == nil {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, docID)
	}
}

func (h *Hub) closeAllClients() {
	h.logger.Info("closing all client connections", zap.Int("clients", len(h.clients)))
	for client := range h.clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
				h.logger.Warn("closing client connection",
					zap.String("remoteAddr", client.addr), zap.Error(err))
			}
		}
	}
}

// Shutdown stops the event loop, closes every connection, and waits for the
// pump goroutines to finish or for the timeout to elapse.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		h.logger.Info("hub shutdown complete")
		return nil
	case <-time.After(timeout):
		h.logger.Warn("hub shutdown timed out")
		return context.DeadlineExceeded
	}
}
