package coordinator

import (
	"testing"

	"github.com/DaDaDaTheoryNow/docklord/api/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPending_InsertThenRemoveDelivers(t *testing.T) {
	p := NewPending()
	key := PendingKey{RequestID: "req-1", RequestType: conversation.RequestTypeGetContainers}

	ch, ok := p.Insert(key)
	require.True(t, ok)
	assert.Equal(t, 1, p.Len())

	writable, ok := p.Remove(key)
	require.True(t, ok)

	env := &conversation.Envelope{}
	writable <- env
	assert.Same(t, env, <-ch)
	assert.Equal(t, 0, p.Len())
}

func TestPending_DuplicateInsertFails(t *testing.T) {
	p := NewPending()
	key := PendingKey{RequestID: "req-1", RequestType: conversation.RequestTypeGetContainers}

	_, ok := p.Insert(key)
	require.True(t, ok)

	_, ok = p.Insert(key)
	assert.False(t, ok)
}

func TestPending_RemoveUnknownKeyFails(t *testing.T) {
	p := NewPending()
	key := PendingKey{RequestID: "missing", RequestType: conversation.RequestTypeGetContainers}
	_, ok := p.Remove(key)
	assert.False(t, ok)
}

func TestPending_RemoveRaceOnlyOneWinner(t *testing.T) {
	p := NewPending()
	key := PendingKey{RequestID: "req-1", RequestType: conversation.RequestTypeStartContainer}
	_, ok := p.Insert(key)
	require.True(t, ok)

	// Simulates the ingress-match vs caller-timeout race: both call Remove,
	// only one may observe ok=true.
	_, firstOK := p.Remove(key)
	_, secondOK := p.Remove(key)
	assert.True(t, firstOK)
	assert.False(t, secondOK)
}

func TestPending_SameRequestIDDifferentTypeDoesNotCollide(t *testing.T) {
	p := NewPending()
	keyA := PendingKey{RequestID: "req-1", RequestType: conversation.RequestTypeGetContainers}
	keyB := PendingKey{RequestID: "req-1", RequestType: conversation.RequestTypeStartContainer}

	_, ok := p.Insert(keyA)
	require.True(t, ok)
	_, ok = p.Insert(keyB)
	require.True(t, ok)
	assert.Equal(t, 2, p.Len())
}
