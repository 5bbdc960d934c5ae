package mindmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndList(t *testing.T) {
	store := NewChatStore()

	first, err := store.Append("doc-1", "alice", "hello")
	require.NoError(t, err)
	second, err := store.Append("doc-1", "bob", "hi alice")
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, first.Timestamp.IsZero())

	msgs := store.List("doc-1")
	require.Len(t, msgs, 2)
	assert.Equal(t, "alice", msgs[0].User)
	assert.Equal(t, "hi alice", msgs[1].Message)
}

func TestAppendRequiresUserAndMessage(t *testing.T) {
	store := NewChatStore()

	_, err := store.Append("doc-1", "", "hello")
	assert.Error(t, err)

	_, err = store.Append("doc-1", "alice", "")
	assert.Error(t, err)

	assert.Empty(t, store.List("doc-1"), "failed appends must not mutate the log")
}

func TestListUnknownDocument(t *testing.T) {
	store := NewChatStore()

	msgs := store.List("missing")

	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestListsAreScopedPerDocument(t *testing.T) {
	store := NewChatStore()

	_, err := store.Append("doc-1", "alice", "one")
	require.NoError(t, err)
	_, err = store.Append("doc-2", "bob", "two")
	require.NoError(t, err)

	assert.Len(t, store.List("doc-1"), 1)
	assert.Len(t, store.List("doc-2"), 1)
}
