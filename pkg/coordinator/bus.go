package coordinator

import "github.com/DaDaDaTheoryNow/docklord/api/conversation"

// OutboundRequest is a command addressed to one Node, published on the
// command bus for every session to inspect. A session's egress goroutine
// forwards the envelope to its own node only when NodeID/Password match its
// authenticated identity.
type OutboundRequest struct {
	NodeID   string
	Password string
	Envelope *conversation.Envelope
}
