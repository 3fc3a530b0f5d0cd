package coordinator

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/DaDaDaTheoryNow/docklord/api/conversation"
	"github.com/DaDaDaTheoryNow/docklord/pkg/bus"
	"github.com/DaDaDaTheoryNow/docklord/pkg/log"
	"github.com/DaDaDaTheoryNow/docklord/pkg/metrics"
)

// authState tracks the credentials one Conversation stream has presented.
// Authentication is one-way: once set, it never resets except by the
// session ending.
type authState struct {
	mu       sync.Mutex
	nodeID   string
	password string
	authed   bool
}

func (a *authState) authenticate(nodeID, password string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.authed {
		return
	}
	a.nodeID = nodeID
	a.password = password
	a.authed = true
}

func (a *authState) isAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authed
}

func (a *authState) matches(nodeID, password string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authed && a.nodeID == nodeID && a.password == password
}

// credentials returns the node key this session authenticated as, if any.
func (a *authState) credentials() (NodeKey, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.authed {
		return NodeKey{}, false
	}
	return NodeKey{NodeID: a.nodeID, Password: a.password}, true
}

// stream is the subset of ConversationService_ConversationServer a Session
// needs; narrowing it keeps session_test.go free of real gRPC plumbing.
type stream interface {
	Send(*conversation.Envelope) error
	Recv() (*conversation.Envelope, error)
}

// Session drives one Node's Conversation stream: an ingress loop reading
// ServerCommand/NodeResponse traffic from the stream, and an egress goroutine
// forwarding command-bus traffic addressed to this node back out.
type Session struct {
	presence           *Presence
	pending            *Pending
	commandBus         *bus.Bus[OutboundRequest]
	startedAt          time.Time
	commandBusCapacity int
	outboundCapacity   int
}

// NewSession constructs a Session bound to the Coordinator's shared state.
// commandBusCapacity sizes this session's command-bus subscription buffer;
// outboundCapacity sizes the channel draining into the actual gRPC stream.
func NewSession(presence *Presence, pending *Pending, commandBus *bus.Bus[OutboundRequest], startedAt time.Time, commandBusCapacity, outboundCapacity int) *Session {
	return &Session{
		presence:           presence,
		pending:            pending,
		commandBus:         commandBus,
		startedAt:          startedAt,
		commandBusCapacity: commandBusCapacity,
		outboundCapacity:   outboundCapacity,
	}
}

// Run drives one Conversation stream end to end, blocking until the stream
// closes or errors. It never returns a transport error for the caller to
// translate — the only errors that propagate are Recv failures signaling
// the stream itself is gone.
func (s *Session) Run(st stream) error {
	auth := &authState{}
	outbound := make(chan *conversation.Envelope, s.outboundCapacity)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for env := range outbound {
			if err := st.Send(env); err != nil {
				log.Logger.Warn().Err(err).Msg("failed to send envelope to node")
				return
			}
		}
	}()

	sub, unsubscribe := s.commandBus.Subscribe(s.commandBusCapacity)
	egressDone := make(chan struct{})
	go func() {
		defer close(egressDone)
		for req := range sub {
			if !auth.matches(req.NodeID, req.Password) {
				continue
			}
			select {
			case outbound <- req.Envelope:
			default:
				metrics.CommandBusDropsTotal.Inc()
				log.Logger.Warn().Str("node_id", req.NodeID).Msg("outbound channel full, dropping command")
			}
		}
	}()

	var nodeBus *bus.Bus[*conversation.Envelope]
	var recvErr error
	for {
		env, err := st.Recv()
		if err != nil {
			if err != io.EOF {
				recvErr = err
			}
			break
		}
		switch {
		case env.GetServerCommand() != nil:
			nodeBus = s.handleServerCommand(auth, env.GetServerCommand(), outbound, nodeBus)
		case env.GetNodeResponse() != nil:
			s.handleNodeResponse(auth, env.GetNodeResponse(), nodeBus)
		}
	}

	unsubscribe()
	close(outbound)
	<-egressDone
	<-writerDone

	if key, ok := auth.credentials(); ok && nodeBus != nil {
		s.presence.Remove(key, nodeBus)
		metrics.NodesConnected.Set(float64(s.presence.Count()))
		log.WithNodeID(key.NodeID).Info().Msg("node disconnected")
	}
	return recvErr
}

func (s *Session) handleServerCommand(auth *authState, cmd *conversation.ServerCommand, outbound chan<- *conversation.Envelope, nodeBus *bus.Bus[*conversation.Envelope]) *bus.Bus[*conversation.Envelope] {
	if !auth.isAuthenticated() {
		if req := cmd.GetAuthRequest(); req != nil {
			auth.authenticate(req.NodeID, req.Password)
			nodeBus = bus.New[*conversation.Envelope]()
			s.presence.Register(NodeKey{NodeID: req.NodeID, Password: req.Password}, nodeBus)
			metrics.NodesConnected.Set(float64(s.presence.Count()))
			log.WithNodeID(req.NodeID).Info().Msg("node authenticated")
		}
		return nodeBus
	}

	if cmd.GetGetServerStatus() != nil {
		resp := &conversation.Envelope{
			Payload: &conversation.Envelope_ServerResponse{ServerResponse: &conversation.ServerResponse{
				Kind: &conversation.ServerResponse_ServerStatus{ServerStatus: &conversation.ServerStatus{
					Status: "running",
					Uptime: formatUptime(time.Since(s.startedAt)),
				}},
			}},
		}
		select {
		case outbound <- resp:
		default:
			log.Logger.Warn().Msg("outbound channel full, dropping server status reply")
		}
	}
	return nodeBus
}

func (s *Session) handleNodeResponse(auth *authState, resp *conversation.NodeResponse, nodeBus *bus.Bus[*conversation.Envelope]) {
	if !auth.isAuthenticated() {
		return
	}

	if key := resp.GetRequestKey(); key != nil && !key.IsUnspecific() {
		if id, ok := key.Value(); ok {
			pendingKey := PendingKey{RequestID: id, RequestType: key.RequestType}
			if ch, found := s.pending.Remove(pendingKey); found {
				ch <- &conversation.Envelope{Payload: &conversation.Envelope_NodeResponse{NodeResponse: resp}}
				return
			}
		}
	}

	// No pending caller (it timed out, or this is a spontaneous update):
	// route it to the node's own event bus for any WebSocket observer.
	if nodeBus != nil {
		nodeBus.Publish(&conversation.Envelope{Payload: &conversation.Envelope_NodeResponse{NodeResponse: resp}})
	}
}

func formatUptime(d time.Duration) string {
	secs := int64(d.Seconds())
	return fmt.Sprintf("%dh %02dm %02ds", secs/3600, (secs%3600)/60, secs%60)
}
