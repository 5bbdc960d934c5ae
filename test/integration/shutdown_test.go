package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindmesh/mindmesh/test/testhelpers"
)

func TestHubShutdownClosesConnections(t *testing.T) {
	stack := testhelpers.NewStack(t)
	doc := stack.Docs.Create("shared", nil, nil)

	conn := stack.DialWS(t)
	testhelpers.JoinRoom(t, stack, conn, doc.ID, 1)

	require.NoError(t, stack.Hub.Shutdown(2*time.Second))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "connection must be closed after hub shutdown")
}
