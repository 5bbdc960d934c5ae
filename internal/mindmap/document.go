// Package mindmap implements the document store that owns every mind map
// known to the server, keyed by document id.
package mindmap

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is assigned to documents created without an explicit title.
const DefaultTitle = "Untitled Mind Map"

// ErrNotFound is returned when a document id has no entry in the store.
var ErrNotFound = errors.New("mind map not found")

// Node is a single positioned node on the mind map canvas.
type Node struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Text  string  `json:"text"`
	Color string  `json:"color"`
}

// Connection links two nodes by id. The endpoints are weak references: they
// are not validated against the node list when written, and dangling ids are
// filtered out on the client at render time.
type Connection struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Document is a complete mind map. Nodes and Connections are replaced
// wholesale on every update; there is no per-element merge.
type Document struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Nodes       []Node       `json:"nodes"`
	Connections []Connection `json:"connections"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// DocumentStore maps document ids to documents. All methods are safe for
// concurrent use and return copies, never internal state.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewDocumentStore creates an empty document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs: make(map[string]*Document),
	}
}

// Create stores a new document under a fresh id and returns it. An empty
// title falls back to DefaultTitle; nil node or connection slices become
// empty ones. Both timestamps are stamped to the same instant.
func (s *DocumentStore) Create(title string, nodes []Node, connections []Connection) Document {
	if title == "" {
		title = DefaultTitle
	}
	if nodes == nil {
		nodes = []Node{}
	}
	if connections == nil {
		connections = []Connection{}
	}

	now := time.Now().UTC()
	doc := &Document{
		ID:          uuid.NewString(),
		Title:       title,
		Nodes:       nodes,
		Connections: connections,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.docs[doc.ID] = doc
	s.mu.Unlock()

	return doc.clone()
}

// Get returns the document with the given id, or ErrNotFound.
func (s *DocumentStore) Get(id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc.clone(), nil
}

// Update applies a partial update to an existing document and refreshes
// UpdatedAt. An empty title keeps the previous title, and nil node or
// connection slices keep the previous values; an explicit empty slice
// replaces them. An explicitly empty title is therefore indistinguishable
// from an omitted one, matching the established API behavior.
func (s *DocumentStore) Update(id, title string, nodes []Node, connections []Connection) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}

	if title != "" {
		doc.Title = title
	}
	if nodes != nil {
		doc.Nodes = nodes
	}
	if connections != nil {
		doc.Connections = connections
	}
	doc.UpdatedAt = time.Now().UTC()

	return doc.clone(), nil
}

// ReplaceContent swaps a document's nodes and connections wholesale and
// refreshes UpdatedAt. Unlike Update it applies the given slices as-is, nil
// included. This is the realtime edit path: last write wins, no merging.
func (s *DocumentStore) ReplaceContent(id string, nodes []Node, connections []Connection) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}

	doc.Nodes = nodes
	doc.Connections = connections
	doc.UpdatedAt = time.Now().UTC()

	return doc.clone(), nil
}

// Len reports how many documents the store currently holds.
func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// clone preserves empty-but-non-nil slices so an empty document still
// marshals its nodes and connections as [] rather than null.
func (d *Document) clone() Document {
	out := *d
	if d.Nodes != nil {
		out.Nodes = make([]Node, len(d.Nodes))
		copy(out.Nodes, d.Nodes)
	}
	if d.Connections != nil {
		out.Connections = make([]Connection, len(d.Connections))
		copy(out.Connections, d.Connections)
	}
	return out
}
