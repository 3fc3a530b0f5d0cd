package coordinator

import (
	"sync"

	"github.com/DaDaDaTheoryNow/docklord/api/conversation"
)

// PendingKey identifies one in-flight request awaiting a matching
// NodeResponse. RequestType disambiguates request IDs that happen to
// collide across different operations (it never happens with UUIDv4s in
// practice, but the wire contract keys on both fields).
type PendingKey struct {
	RequestID   string
	RequestType conversation.RequestType
}

// Pending correlates outstanding REST/WebSocket requests with the
// NodeResponse that eventually answers them. Each entry is a one-shot
// channel: inserted by the caller before the matching NodeCommand is
// published, removed and delivered to by ingress when the reply arrives (or
// removed and discarded by the caller on timeout).
//
// The channel is buffered with capacity 1 so that whichever side wins the
// Insert/Remove race never blocks: a late-arriving reply that loses the
// race finds no entry to deliver to and falls back to the node's own event
// bus instead.
type Pending struct {
	mu      sync.Mutex
	entries map[PendingKey]chan *conversation.Envelope
}

// NewPending creates an empty Pending table.
func NewPending() *Pending {
	return &Pending{entries: make(map[PendingKey]chan *conversation.Envelope)}
}

// Insert creates a one-shot channel for key and returns it, or returns
// ok=false if key is already pending (a caller reusing a request ID, which
// should never happen with UUIDv4 generation).
func (p *Pending) Insert(key PendingKey) (ch <-chan *conversation.Envelope, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.entries[key]; exists {
		return nil, false
	}
	c := make(chan *conversation.Envelope, 1)
	p.entries[key] = c
	return c, true
}

// Remove deletes and returns the channel for key, if present. Both the
// ingress match path and the caller's timeout path call Remove; the map
// mutex makes exactly one of them win.
func (p *Pending) Remove(key PendingKey) (chan *conversation.Envelope, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.entries[key]
	if ok {
		delete(p.entries, key)
	}
	return c, ok
}

// Len reports the number of currently pending requests.
func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
