package node

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/DaDaDaTheoryNow/docklord/api/conversation"
	"github.com/DaDaDaTheoryNow/docklord/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStream is an in-memory stand-in for a Conversation gRPC client
// stream: tests push into `in` and drain `out` directly instead of
// dialing a real Coordinator.
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

// fakeEngine lets tests drive Client without a real containerd socket.
type fakeEngine struct {
	mu sync.Mutex

	containers       []string
	startErr         error
	startedContainer string

	watchCh chan []string
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{watchCh: make(chan []string, 4)}
}

func (e *fakeEngine) ListContainers(context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.containers, nil
}

func (e *fakeEngine) ListContainersWithStatus(context.Context) ([]conversation.ContainerWithStatus, error) {
	return nil, nil
}

func (e *fakeEngine) ContainerStatus(context.Context, string) (conversation.ContainerStatusMsg, error) {
	return conversation.ContainerStatusMsg{Status: "running"}, nil
}

func (e *fakeEngine) StartContainer(_ context.Context, containerID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.startErr != nil {
		return e.startErr
	}
	e.startedContainer = containerID
	return nil
}

func (e *fakeEngine) StopContainer(context.Context, string) error { return nil }

func (e *fakeEngine) DeleteContainer(context.Context, string) error { return nil }

func (e *fakeEngine) ContainerLogs(context.Context, string, int32, bool, string) ([]string, error) {
	return []string{"line1", "line2"}, nil
}

func (e *fakeEngine) Watch(ctx context.Context) (<-chan []string, error) {
	out := make(chan []string, 4)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ids, ok := <-e.watchCh:
				if !ok {
					return
				}
				out <- ids
			}
		}
	}()
	return out, nil
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

func TestClient_SendsAuthThenStatusOnConnect(t *testing.T) {
	cfg := config.Node{NodeID: "node-a", Password: "secret"}
	cli := NewClient(cfg, newFakeEngine())

	fs := newFakeStream()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cli.run(ctx, fs) }()

	auth := recvWithin(t, fs.out, time.Second)
	authKind, ok := auth.GetServerCommand().Kind.(*conversation.ServerCommand_AuthRequest)
	require.True(t, ok)
	assert.Equal(t, "node-a", authKind.AuthRequest.NodeID)
	assert.Equal(t, "secret", authKind.AuthRequest.Password)

	status := recvWithin(t, fs.out, time.Second)
	_, ok = status.GetServerCommand().Kind.(*conversation.ServerCommand_GetServerStatus)
	assert.True(t, ok)

	cancel()
	fs.close()
	<-done
}

func TestClient_GetNodeContainersRepliesWithEngineList(t *testing.T) {
	cfg := config.Node{NodeID: "node-a", Password: "secret"}
	engine := newFakeEngine()
	engine.containers = []string{"web-1", "web-2"}
	cli := NewClient(cfg, engine)

	fs := newFakeStream()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cli.run(ctx, fs) }()

	recvWithin(t, fs.out, time.Second) // auth
	recvWithin(t, fs.out, time.Second) // status

	fs.in <- &conversation.Envelope{Payload: &conversation.Envelope_NodeCommand{NodeCommand: &conversation.NodeCommand{
		Kind: &conversation.NodeCommand_GetNodeContainers{GetNodeContainers: &conversation.GetNodeContainers{RequestID: "r1"}},
	}}}

	reply := recvWithin(t, fs.out, time.Second)
	kind, ok := reply.GetNodeResponse().Kind.(*conversation.NodeResponse_NodeContainers)
	require.True(t, ok)
	assert.Equal(t, []string{"web-1", "web-2"}, kind.NodeContainers.Containers)
	id, ok := kind.NodeContainers.RequestKey.Value()
	require.True(t, ok)
	assert.Equal(t, "r1", id)

	cancel()
	fs.close()
	<-done
}

func TestClient_StartContainerErrorBecomesNodeError(t *testing.T) {
	cfg := config.Node{NodeID: "node-a", Password: "secret"}
	engine := newFakeEngine()
	engine.startErr = errors.New("image not found")
	cli := NewClient(cfg, engine)

	fs := newFakeStream()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cli.run(ctx, fs) }()

	recvWithin(t, fs.out, time.Second) // auth
	recvWithin(t, fs.out, time.Second) // status

	fs.in <- &conversation.Envelope{Payload: &conversation.Envelope_NodeCommand{NodeCommand: &conversation.NodeCommand{
		Kind: &conversation.NodeCommand_StartContainer{StartContainer: &conversation.StartContainer{RequestID: "r2", ContainerID: "web-1"}},
	}}}

	reply := recvWithin(t, fs.out, time.Second)
	kind, ok := reply.GetNodeResponse().Kind.(*conversation.NodeResponse_Error)
	require.True(t, ok)
	assert.Equal(t, "image not found", kind.Error.Message)
	id, ok := kind.Error.RequestKey.Value()
	require.True(t, ok)
	assert.Equal(t, "r2", id)

	cancel()
	fs.close()
	<-done
}

func TestClient_WatchUpdatesAreForwardedSpontaneously(t *testing.T) {
	cfg := config.Node{NodeID: "node-a", Password: "secret"}
	engine := newFakeEngine()
	cli := NewClient(cfg, engine)

	fs := newFakeStream()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cli.run(ctx, fs) }()

	recvWithin(t, fs.out, time.Second) // auth
	recvWithin(t, fs.out, time.Second) // status

	engine.watchCh <- []string{"web-1"}

	update := recvWithin(t, fs.out, time.Second)
	kind, ok := update.GetNodeResponse().Kind.(*conversation.NodeResponse_NodeContainers)
	require.True(t, ok)
	assert.Equal(t, []string{"web-1"}, kind.NodeContainers.Containers)
	assert.True(t, kind.NodeContainers.RequestKey.IsUnspecific())

	cancel()
	fs.close()
	<-done
}
