// Package server implements the HTTP and WebSocket surface of MindMesh.
//
// The implementation is split into focused files: the hub and client for the
// realtime relay, REST handlers for mind map and chat CRUD, the router, and
// server lifecycle helpers.
package server
