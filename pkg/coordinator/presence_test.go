package coordinator

import (
	"testing"

	"github.com/DaDaDaTheoryNow/docklord/api/conversation"
	"github.com/DaDaDaTheoryNow/docklord/pkg/bus"
	"github.com/stretchr/testify/assert"
)

func TestPresence_RegisterAndLookup(t *testing.T) {
	p := NewPresence()
	key := NodeKey{NodeID: "node-a", Password: "secret"}
	b := bus.New[*conversation.Envelope]()

	_, ok := p.Lookup(key)
	assert.False(t, ok)

	p.Register(key, b)
	got, ok := p.Lookup(key)
	assert.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, 1, p.Count())
}

func TestPresence_ReregisterReplacesBus(t *testing.T) {
	p := NewPresence()
	key := NodeKey{NodeID: "node-a", Password: "secret"}
	old := bus.New[*conversation.Envelope]()
	next := bus.New[*conversation.Envelope]()

	p.Register(key, old)
	p.Register(key, next)

	got, ok := p.Lookup(key)
	assert.True(t, ok)
	assert.Same(t, next, got)
	assert.Equal(t, 1, p.Count())
}

func TestPresence_RemoveOnlyIfStillOwner(t *testing.T) {
	p := NewPresence()
	key := NodeKey{NodeID: "node-a", Password: "secret"}
	old := bus.New[*conversation.Envelope]()
	next := bus.New[*conversation.Envelope]()

	p.Register(key, old)
	p.Register(key, next)

	// The stale session's cleanup tries to remove the bus it registered,
	// but a newer session already replaced it — this must be a no-op.
	p.Remove(key, old)
	got, ok := p.Lookup(key)
	assert.True(t, ok)
	assert.Same(t, next, got)

	p.Remove(key, next)
	_, ok = p.Lookup(key)
	assert.False(t, ok)
	assert.Equal(t, 0, p.Count())
}

func TestPresence_DifferentPasswordsDoNotCollide(t *testing.T) {
	p := NewPresence()
	keyA := NodeKey{NodeID: "node-a", Password: "one"}
	keyB := NodeKey{NodeID: "node-a", Password: "two"}
	p.Register(keyA, bus.New[*conversation.Envelope]())
	p.Register(keyB, bus.New[*conversation.Envelope]())
	assert.Equal(t, 2, p.Count())
}
