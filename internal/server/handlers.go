// Package server exposes the REST surface of MindMesh: mind map CRUD and
// per-document chat, backed by the in-memory stores.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mindmesh/mindmesh/internal/config"
	"github.com/mindmesh/mindmesh/internal/mindmap"
)

// Error messages are part of the API contract and mirror what clients expect.
const (
	errMindMapNotFound  = "Mind map not found"
	errChatFieldsNeeded = "User and message are required"
	errInvalidBody      = "Invalid request body"
)

// Handler bundles the HTTP endpoints with their dependencies.
type Handler struct {
	docs    *mindmap.DocumentStore
	chat    *mindmap.ChatStore
	hub     *Hub
	cfg     *config.Config
	origins *originPolicy
	logger  *zap.Logger
}

// mindMapRequest is the body of both POST and PUT mind map calls. Nil slices
// mean the field was absent; an empty title is treated the same as a missing
// one on update.
type mindMapRequest struct {
	Title       string               `json:"title"`
	Nodes       []mindmap.Node       `json:"nodes"`
	Connections []mindmap.Connection `json:"connections"`
}

type chatRequest struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

// NewHandler creates the handler set with its stores, hub, and config.
func NewHandler(docs *mindmap.DocumentStore, chat *mindmap.ChatStore, hub *Hub, cfg *config.Config, logger *zap.Logger) *Handler {
	return &Handler{
		docs:    docs,
		chat:    chat,
		hub:     hub,
		cfg:     cfg,
		origins: newOriginPolicy(cfg.AllowedOrigins, logger),
		logger:  logger,
	}
}

// GetMindMap handles GET /api/mindmaps/{id}.
func (h *Handler) GetMindMap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := h.docs.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, errMindMapNotFound)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// CreateMindMap handles POST /api/mindmaps. An empty or absent body yields a
// blank document with a placeholder title.
func (h *Handler) CreateMindMap(w http.ResponseWriter, r *http.Request) {
	var req mindMapRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidBody)
		return
	}

	doc := h.docs.Create(req.Title, req.Nodes, req.Connections)
	h.logger.Info("mind map created",
		zap.String("mindMapId", doc.ID),
		zap.String("title", doc.Title))
	respondJSON(w, http.StatusOK, doc)
}

// UpdateMindMap handles PUT /api/mindmaps/{id}. Fields missing from the body
// keep their previous values.
func (h *Handler) UpdateMindMap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req mindMapRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidBody)
		return
	}

	doc, err := h.docs.Update(id, req.Title, req.Nodes, req.Connections)
	if err != nil {
		respondError(w, http.StatusNotFound, errMindMapNotFound)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

// ListChat handles GET /api/mindmaps/{id}/chat.
func (h *Handler) ListChat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	respondJSON(w, http.StatusOK, h.chat.List(id))
}

// PostChat handles POST /api/mindmaps/{id}/chat. A stored message is also
// broadcast to every realtime member of the document's room, the poster
// included.
func (h *Handler) PostChat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req chatRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errChatFieldsNeeded)
		return
	}

	msg, err := h.chat.Append(id, req.User, req.Message)
	if err != nil {
		respondError(w, http.StatusBadRequest, errChatFieldsNeeded)
		return
	}

	h.hub.BroadcastChat(id, msg)
	respondJSON(w, http.StatusOK, msg)
}

// Health provides a plain-text liveness endpoint.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, "MindMesh server is running!")
}

// decodeBody reads a JSON request body into dest. An empty body is not an
// error; all fields simply keep their zero values.
func decodeBody(r *http.Request, dest any) error {
	err := json.NewDecoder(r.Body).Decode(dest)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// respondJSON marshals first so an encoding failure cannot leave a partial
// body behind sent headers.
func respondJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	payload, _ := json.Marshal(map[string]string{"error": message})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
