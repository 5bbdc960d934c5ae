package mindmap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDefaults(t *testing.T) {
	store := NewDocumentStore()

	doc := store.Create("", nil, nil)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, DefaultTitle, doc.Title)
	assert.NotNil(t, doc.Nodes)
	assert.Empty(t, doc.Nodes)
	assert.NotNil(t, doc.Connections)
	assert.Empty(t, doc.Connections)
	assert.True(t, doc.CreatedAt.Equal(doc.UpdatedAt), "createdAt and updatedAt must match on creation")
}

func TestCreateWithContent(t *testing.T) {
	store := NewDocumentStore()
	nodes := []Node{{ID: "n1", X: 10, Y: 20, Text: "root", Color: "#ff0000"}}
	connections := []Connection{{ID: "c1", From: "n1", To: "n2"}}

	doc := store.Create("Project plan", nodes, connections)

	assert.Equal(t, "Project plan", doc.Title)
	assert.Equal(t, nodes, doc.Nodes)
	assert.Equal(t, connections, doc.Connections)
}

func TestCreateAssignsUniqueIDs(t *testing.T) {
	store := NewDocumentStore()

	first := store.Create("a", nil, nil)
	second := store.Create("b", nil, nil)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 2, store.Len())
}

func TestGetUnknownID(t *testing.T) {
	store := NewDocumentStore()

	_, err := store.Get("unknown")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewDocumentStore()
	created := store.Create("t", []Node{{ID: "n1", Text: "original"}}, nil)

	got, err := store.Get(created.ID)
	require.NoError(t, err)
	got.Nodes[0].Text = "mutated"

	again, err := store.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Nodes[0].Text)
}

func TestUpdateUnknownID(t *testing.T) {
	store := NewDocumentStore()

	_, err := store.Update("unknown", "title", nil, nil)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdatePartialKeepsOmittedFields(t *testing.T) {
	store := NewDocumentStore()
	created := store.Create("Original title", []Node{{ID: "n1"}}, []Connection{{ID: "c1", From: "n1", To: "n1"}})

	time.Sleep(time.Millisecond)
	newNodes := []Node{{ID: "n1"}, {ID: "n2", X: 5}}
	updated, err := store.Update(created.ID, "", newNodes, nil)
	require.NoError(t, err)

	assert.Equal(t, "Original title", updated.Title)
	assert.Equal(t, newNodes, updated.Nodes)
	assert.Equal(t, created.Connections, updated.Connections)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt), "updatedAt must strictly increase")
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
}

func TestUpdateEmptyTitleKeepsOldTitle(t *testing.T) {
	store := NewDocumentStore()
	created := store.Create("Keep me", nil, nil)

	updated, err := store.Update(created.ID, "", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "Keep me", updated.Title)
}

func TestUpdateEmptySliceReplaces(t *testing.T) {
	store := NewDocumentStore()
	created := store.Create("t", []Node{{ID: "n1"}}, nil)

	updated, err := store.Update(created.ID, "", []Node{}, nil)
	require.NoError(t, err)

	assert.Empty(t, updated.Nodes)
}

func TestReplaceContent(t *testing.T) {
	store := NewDocumentStore()
	created := store.Create("t", []Node{{ID: "n1"}}, nil)

	time.Sleep(time.Millisecond)
	nodes := []Node{{ID: "n2", Text: "replacement"}}
	connections := []Connection{{ID: "c1", From: "n2", To: "n2"}}
	updated, err := store.ReplaceContent(created.ID, nodes, connections)
	require.NoError(t, err)

	assert.Equal(t, nodes, updated.Nodes)
	assert.Equal(t, connections, updated.Connections)
	assert.Equal(t, "t", updated.Title)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestReplaceContentUnknownID(t *testing.T) {
	store := NewDocumentStore()

	_, err := store.ReplaceContent("unknown", []Node{{ID: "n1"}}, nil)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, store.Len())
}
