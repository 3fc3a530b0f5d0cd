package coordinator

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/DaDaDaTheoryNow/docklord/api/conversation"
	"github.com/DaDaDaTheoryNow/docklord/pkg/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStream is an in-memory stand-in for a Conversation gRPC stream: tests
// push into `in` and drain `out` directly instead of dialing a real server.
type fakeStream struct {
	in  chan *conversation.Envelope
	out chan *conversation.Envelope

	mu     sync.Mutex
	closed bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{in: make(chan *conversation.Envelope, 16), out: make(chan *conversation.Envelope, 16)}
}

func (f *fakeStream) Send(env *conversation.Envelope) error {
	f.out <- env
	return nil
}

func (f *fakeStream) Recv() (*conversation.Envelope, error) {
	env, ok := <-f.in
	if !ok {
		return nil, io.EOF
	}
	return env, nil
}

func (f *fakeStream) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.in)
	}
}

func authEnvelope(nodeID, password string) *conversation.Envelope {
	return &conversation.Envelope{Payload: &conversation.Envelope_ServerCommand{ServerCommand: &conversation.ServerCommand{
		Kind: &conversation.ServerCommand_AuthRequest{AuthRequest: &conversation.AuthRequest{NodeID: nodeID, Password: password}},
	}}}
}

func recvWithin(t *testing.T, ch <-chan *conversation.Envelope, d time.Duration) *conversation.Envelope {
	t.Helper()
	select {
	case env := <-ch:
		return env
	case <-time.After(d):
		t.Fatal("timed out waiting for envelope")
		return nil
	}
}

func TestSession_AuthRequestRegistersPresence(t *testing.T) {
	presence := NewPresence()
	pending := NewPending()
	commandBus := bus.New[OutboundRequest]()
	sess := NewSession(presence, pending, commandBus, time.Now(), 2048, 32)

	fs := newFakeStream()
	done := make(chan error, 1)
	go func() { done <- sess.Run(fs) }()

	fs.in <- authEnvelope("node-a", "secret")

	require.Eventually(t, func() bool {
		_, ok := presence.Lookup(NodeKey{NodeID: "node-a", Password: "secret"})
		return ok
	}, time.Second, time.Millisecond)

	fs.close()
	<-done
	_, ok := presence.Lookup(NodeKey{NodeID: "node-a", Password: "secret"})
	assert.False(t, ok, "presence entry should be cleaned up once the stream ends")
}

func TestSession_GetServerStatusRepliesOnlyAfterAuth(t *testing.T) {
	presence := NewPresence()
	pending := NewPending()
	commandBus := bus.New[OutboundRequest]()
	sess := NewSession(presence, pending, commandBus, time.Now(), 2048, 32)

	fs := newFakeStream()
	done := make(chan error, 1)
	go func() { done <- sess.Run(fs) }()

	statusReq := &conversation.Envelope{Payload: &conversation.Envelope_ServerCommand{ServerCommand: &conversation.ServerCommand{
		Kind: &conversation.ServerCommand_GetServerStatus{GetServerStatus: &conversation.GetServerStatus{}},
	}}}

	fs.in <- statusReq
	select {
	case <-fs.out:
		t.Fatal("unauthenticated GetServerStatus should not get a reply")
	case <-time.After(50 * time.Millisecond):
	}

	fs.in <- authEnvelope("node-a", "secret")
	fs.in <- statusReq

	reply := recvWithin(t, fs.out, time.Second)
	status := reply.GetServerResponse().GetServerStatus()
	require.NotNil(t, status)
	assert.Equal(t, "running", status.Status)

	fs.close()
	<-done
}

func TestSession_CommandBusOnlyReachesMatchingNode(t *testing.T) {
	presence := NewPresence()
	pending := NewPending()
	commandBus := bus.New[OutboundRequest]()
	sess := NewSession(presence, pending, commandBus, time.Now(), 2048, 32)

	fs := newFakeStream()
	done := make(chan error, 1)
	go func() { done <- sess.Run(fs) }()

	fs.in <- authEnvelope("node-a", "secret")
	require.Eventually(t, func() bool {
		_, ok := presence.Lookup(NodeKey{NodeID: "node-a", Password: "secret"})
		return ok
	}, time.Second, time.Millisecond)

	cmdEnvelope := &conversation.Envelope{Payload: &conversation.Envelope_NodeCommand{NodeCommand: &conversation.NodeCommand{
		Kind: &conversation.NodeCommand_GetNodeContainers{GetNodeContainers: &conversation.GetNodeContainers{RequestID: "r1"}},
	}}}

	commandBus.Publish(OutboundRequest{NodeID: "node-b", Password: "other", Envelope: cmdEnvelope})
	select {
	case <-fs.out:
		t.Fatal("command addressed to a different node must not reach this session")
	case <-time.After(50 * time.Millisecond):
	}

	commandBus.Publish(OutboundRequest{NodeID: "node-a", Password: "secret", Envelope: cmdEnvelope})
	got := recvWithin(t, fs.out, time.Second)
	kind, ok := got.GetNodeCommand().Kind.(*conversation.NodeCommand_GetNodeContainers)
	require.True(t, ok)
	assert.Equal(t, "r1", kind.GetNodeContainers.RequestID)

	fs.close()
	<-done
}

func TestSession_NodeResponseDeliversToPendingCaller(t *testing.T) {
	presence := NewPresence()
	pending := NewPending()
	commandBus := bus.New[OutboundRequest]()
	sess := NewSession(presence, pending, commandBus, time.Now(), 2048, 32)

	fs := newFakeStream()
	done := make(chan error, 1)
	go func() { done <- sess.Run(fs) }()

	fs.in <- authEnvelope("node-a", "secret")
	require.Eventually(t, func() bool {
		_, ok := presence.Lookup(NodeKey{NodeID: "node-a", Password: "secret"})
		return ok
	}, time.Second, time.Millisecond)

	key := PendingKey{RequestID: "r1", RequestType: conversation.RequestTypeGetContainers}
	waiter, ok := pending.Insert(key)
	require.True(t, ok)

	resp := &conversation.Envelope{Payload: &conversation.Envelope_NodeResponse{NodeResponse: &conversation.NodeResponse{
		Kind: &conversation.NodeResponse_NodeContainers{NodeContainers: &conversation.NodeContainers{
			Containers: []string{"c1"},
			RequestKey: &conversation.RequestKey{RequestType: conversation.RequestTypeGetContainers, RequestID: conversation.RequestKey_Value{Value: "r1"}},
		}},
	}}}
	fs.in <- resp

	delivered := recvWithin(t, waiter, time.Second)
	kind, ok := delivered.GetNodeResponse().Kind.(*conversation.NodeResponse_NodeContainers)
	require.True(t, ok)
	assert.Equal(t, []string{"c1"}, kind.NodeContainers.Containers)

	fs.close()
	<-done
}
