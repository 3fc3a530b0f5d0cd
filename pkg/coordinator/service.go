package coordinator

import (
	"time"

	"github.com/DaDaDaTheoryNow/docklord/api/conversation"
	"github.com/DaDaDaTheoryNow/docklord/pkg/bus"
)

// ConversationServiceImpl implements conversation.ConversationServiceServer,
// spawning one Session per connected Node.
type ConversationServiceImpl struct {
	conversation.UnimplementedConversationServiceServer

	presence           *Presence
	pending            *Pending
	commandBus         *bus.Bus[OutboundRequest]
	startedAt          time.Time
	commandBusCapacity int
	outboundCapacity   int
}

// NewConversationServiceImpl wires the gRPC entry point to the shared
// Coordinator state. commandBusCapacity and outboundCapacity size every
// Session spawned from here (see pkg/config.Coordinator).
func NewConversationServiceImpl(presence *Presence, pending *Pending, commandBus *bus.Bus[OutboundRequest], commandBusCapacity, outboundCapacity int) *ConversationServiceImpl {
	return &ConversationServiceImpl{
		presence:           presence,
		pending:            pending,
		commandBus:         commandBus,
		startedAt:          time.Now(),
		commandBusCapacity: commandBusCapacity,
		outboundCapacity:   outboundCapacity,
	}
}

// Conversation handles one Node's bidirectional stream for its entire
// lifetime.
func (c *ConversationServiceImpl) Conversation(st conversation.ConversationService_ConversationServer) error {
	sess := NewSession(c.presence, c.pending, c.commandBus, c.startedAt, c.commandBusCapacity, c.outboundCapacity)
	return sess.Run(st)
}
