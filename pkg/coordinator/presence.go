package coordinator

import (
	"sync"

	"github.com/DaDaDaTheoryNow/docklord/api/conversation"
	"github.com/DaDaDaTheoryNow/docklord/pkg/bus"
)

// NodeKey identifies one authenticated Node session by the credentials it
// presented. The same node_id reconnecting with a different password is a
// different key; it does not collide with the stale entry.
type NodeKey struct {
	NodeID   string
	Password string
}

// Presence is the registry of currently connected Nodes. Each entry maps a
// NodeKey to the broadcast bus carrying that node's response traffic, so a
// WebSocket observer can subscribe to exactly the right node.
//
// Re-registering an existing key (the same node reauthenticating on a new
// stream before the old one is cleaned up) replaces the prior bus; the last
// writer wins and the old session's cleanup simply no-ops when it later
// tries to remove an entry that's no longer its own.
type Presence struct {
	mu    sync.RWMutex
	nodes map[NodeKey]*bus.Bus[*conversation.Envelope]
}

// NewPresence creates an empty Presence registry.
func NewPresence() *Presence {
	return &Presence{nodes: make(map[NodeKey]*bus.Bus[*conversation.Envelope])}
}

// Register installs b as the event bus for key, replacing any existing
// entry.
func (p *Presence) Register(key NodeKey, b *bus.Bus[*conversation.Envelope]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes[key] = b
}

// Lookup returns the event bus registered for key, if any.
func (p *Presence) Lookup(key NodeKey) (*bus.Bus[*conversation.Envelope], bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.nodes[key]
	return b, ok
}

// Remove deletes the entry for key only if it currently points at b. This
// guards against a disconnecting session clobbering the entry a newer
// reconnect already installed.
func (p *Presence) Remove(key NodeKey, b *bus.Bus[*conversation.Envelope]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.nodes[key]; ok && current == b {
		delete(p.nodes, key)
	}
}

// Count reports the number of currently registered nodes.
func (p *Presence) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.nodes)
}
