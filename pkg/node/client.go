package node

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/DaDaDaTheoryNow/docklord/api/conversation"
	"github.com/DaDaDaTheoryNow/docklord/pkg/config"
	"github.com/DaDaDaTheoryNow/docklord/pkg/log"
)

// OutboundCapacity bounds how many envelopes may be queued for send
// before a slow stream starts causing drops.
const OutboundCapacity = 32

const (
	minReconnectBackoff = 1 * time.Second
	maxReconnectBackoff = 30 * time.Second
)

// clientStream narrows the generated client stream to what Run needs, so
// tests can substitute an in-memory fake.
type clientStream interface {
	Send(*conversation.Envelope) error
	Recv() (*conversation.Envelope, error)
}

// Client drives one Node's long-lived Conversation stream to the
// Coordinator: it authenticates, answers NodeCommands against engine, and
// pushes spontaneous container updates as they're observed.
type Client struct {
	cfg    config.Node
	engine Engine
}

// NewClient builds a Client for cfg, dispatching commands to engine.
func NewClient(cfg config.Node, engine Engine) *Client {
	return &Client{cfg: cfg, engine: engine}
}

// Serve runs Run in a loop, reconnecting with exponential backoff (capped
// at 30s) whenever the stream ends, until ctx is canceled. Coordinator
// disconnection never stops the Node agent; it just keeps retrying.
func (c *Client) Serve(ctx context.Context) error {
	backoff := minReconnectBackoff
	for {
		err := c.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.WithNodeID(c.cfg.NodeID).Warn().Err(err).Dur("retry_in", backoff).Msg("conversation stream ended, reconnecting")
		} else {
			backoff = minReconnectBackoff
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxReconnectBackoff {
			backoff = maxReconnectBackoff
		}
	}
}

// Run dials the Coordinator, authenticates, and serves NodeCommands until
// ctx is canceled or the stream errors.
func (c *Client) Run(ctx context.Context) error {
	conn, err := grpc.NewClient(c.cfg.CoordinatorAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to dial coordinator: %w", err)
	}
	defer conn.Close()

	client := conversation.NewConversationServiceClient(conn)
	stream, err := client.Conversation(ctx)
	if err != nil {
		return fmt.Errorf("failed to open conversation stream: %w", err)
	}

	return c.run(ctx, stream)
}

func (c *Client) run(ctx context.Context, st clientStream) error {
	outbound := make(chan *conversation.Envelope, OutboundCapacity)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for env := range outbound {
			if err := st.Send(env); err != nil {
				log.WithNodeID(c.cfg.NodeID).Warn().Err(err).Msg("failed to send envelope")
				return
			}
		}
	}()

	send := func(env *conversation.Envelope) {
		select {
		case outbound <- env:
		default:
			log.WithNodeID(c.cfg.NodeID).Warn().Msg("outbound channel full, dropping envelope")
		}
	}

	send(authEnvelope(c.cfg.NodeID, c.cfg.Password))
	send(statusEnvelope())

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	if updates, err := c.engine.Watch(watchCtx); err != nil {
		log.WithNodeID(c.cfg.NodeID).Warn().Err(err).Msg("failed to start container watch")
	} else {
		go func() {
			for ids := range updates {
				send(containerUpdateEnvelope(ids))
			}
		}()
	}

	var recvErr error
	for {
		env, err := st.Recv()
		if err != nil {
			recvErr = err
			break
		}
		switch {
		case env.GetNodeCommand() != nil:
			go c.handleCommand(ctx, env.GetNodeCommand(), send)
		case env.GetServerResponse() != nil:
			c.logServerResponse(env.GetServerResponse())
		}
	}

	cancelWatch()
	close(outbound)
	<-writerDone
	return recvErr
}

func (c *Client) handleCommand(ctx context.Context, cmd *conversation.NodeCommand, send func(*conversation.Envelope)) {
	switch k := cmd.Kind.(type) {
	case *conversation.NodeCommand_GetNodeContainers:
		c.handleGetNodeContainers(ctx, k.GetNodeContainers, send)
	case *conversation.NodeCommand_GetNodeContainersWithStatus:
		c.handleGetNodeContainersWithStatus(ctx, k.GetNodeContainersWithStatus, send)
	case *conversation.NodeCommand_GetContainerStatus:
		c.handleGetContainerStatus(ctx, k.GetContainerStatus, send)
	case *conversation.NodeCommand_StartContainer:
		c.handleStartContainer(ctx, k.StartContainer, send)
	case *conversation.NodeCommand_StopContainer:
		c.handleStopContainer(ctx, k.StopContainer, send)
	case *conversation.NodeCommand_DeleteContainer:
		c.handleDeleteContainer(ctx, k.DeleteContainer, send)
	case *conversation.NodeCommand_GetContainerLogs:
		c.handleGetContainerLogs(ctx, k.GetContainerLogs, send)
	}
}

func (c *Client) handleGetNodeContainers(ctx context.Context, req *conversation.GetNodeContainers, send func(*conversation.Envelope)) {
	key := requestKey(conversation.RequestTypeGetContainers, req.RequestID)
	ids, err := c.engine.ListContainers(ctx)
	if err != nil {
		send(errorEnvelope(err, key))
		return
	}
	send(&conversation.Envelope{Payload: &conversation.Envelope_NodeResponse{NodeResponse: &conversation.NodeResponse{
		Kind: &conversation.NodeResponse_NodeContainers{NodeContainers: &conversation.NodeContainers{
			Containers: ids,
			RequestKey: key,
		}},
	}}})
}

func (c *Client) handleGetNodeContainersWithStatus(ctx context.Context, req *conversation.GetNodeContainersWithStatus, send func(*conversation.Envelope)) {
	key := requestKey(conversation.RequestTypeGetContainersWithStatus, req.RequestID)
	containers, err := c.engine.ListContainersWithStatus(ctx)
	if err != nil {
		send(errorEnvelope(err, key))
		return
	}
	send(&conversation.Envelope{Payload: &conversation.Envelope_NodeResponse{NodeResponse: &conversation.NodeResponse{
		Kind: &conversation.NodeResponse_NodeContainersWithStatus{NodeContainersWithStatus: &conversation.NodeContainersWithStatus{
			Containers: containers,
			RequestKey: key,
		}},
	}}})
}

func (c *Client) handleGetContainerStatus(ctx context.Context, req *conversation.GetContainerStatus, send func(*conversation.Envelope)) {
	key := requestKey(conversation.RequestTypeGetContainerStatus, req.RequestID)
	status, err := c.engine.ContainerStatus(ctx, req.ContainerID)
	if err != nil {
		send(errorEnvelope(err, key))
		return
	}
	status.RequestKey = key
	send(&conversation.Envelope{Payload: &conversation.Envelope_NodeResponse{NodeResponse: &conversation.NodeResponse{
		Kind: &conversation.NodeResponse_ContainerStatus{ContainerStatus: &status},
	}}})
}

func (c *Client) handleStartContainer(ctx context.Context, req *conversation.StartContainer, send func(*conversation.Envelope)) {
	key := requestKey(conversation.RequestTypeStartContainer, req.RequestID)
	if err := c.engine.StartContainer(ctx, req.ContainerID); err != nil {
		send(errorEnvelope(err, key))
		return
	}
	send(actionEnvelope(req.ContainerID, "start", "container started", key))
}

func (c *Client) handleStopContainer(ctx context.Context, req *conversation.StopContainer, send func(*conversation.Envelope)) {
	key := requestKey(conversation.RequestTypeStopContainer, req.RequestID)
	if err := c.engine.StopContainer(ctx, req.ContainerID); err != nil {
		send(errorEnvelope(err, key))
		return
	}
	send(actionEnvelope(req.ContainerID, "stop", "container stopped", key))
}

func (c *Client) handleDeleteContainer(ctx context.Context, req *conversation.DeleteContainer, send func(*conversation.Envelope)) {
	key := requestKey(conversation.RequestTypeDeleteContainer, req.RequestID)
	if err := c.engine.DeleteContainer(ctx, req.ContainerID); err != nil {
		send(errorEnvelope(err, key))
		return
	}
	send(actionEnvelope(req.ContainerID, "delete", "container deleted", key))
}

func (c *Client) handleGetContainerLogs(ctx context.Context, req *conversation.GetContainerLogs, send func(*conversation.Envelope)) {
	key := requestKey(conversation.RequestTypeGetContainerLogs, req.RequestID)
	lines, err := c.engine.ContainerLogs(ctx, req.ContainerID, req.Tail, req.Follow, req.Since)
	if err != nil {
		send(errorEnvelope(err, key))
		return
	}
	send(&conversation.Envelope{Payload: &conversation.Envelope_NodeResponse{NodeResponse: &conversation.NodeResponse{
		Kind: &conversation.NodeResponse_ContainerLogs{ContainerLogs: &conversation.ContainerLogs{
			ContainerID: req.ContainerID,
			Logs:        lines,
			RequestKey:  key,
		}},
	}}})
}

func (c *Client) logServerResponse(resp *conversation.ServerResponse) {
	switch k := resp.Kind.(type) {
	case *conversation.ServerResponse_ServerStatus:
		log.WithNodeID(c.cfg.NodeID).Info().Str("status", k.ServerStatus.Status).Str("uptime", k.ServerStatus.Uptime).Msg("coordinator status")
	case *conversation.ServerResponse_AuthResponse:
		log.WithNodeID(c.cfg.NodeID).Info().Bool("success", k.AuthResponse.Success).Msg("auth response")
	}
}

func requestKey(rt conversation.RequestType, requestID string) *conversation.RequestKey {
	return &conversation.RequestKey{RequestType: rt, RequestID: conversation.RequestKey_Value{Value: requestID}}
}

func authEnvelope(nodeID, password string) *conversation.Envelope {
	return &conversation.Envelope{Payload: &conversation.Envelope_ServerCommand{ServerCommand: &conversation.ServerCommand{
		Kind: &conversation.ServerCommand_AuthRequest{AuthRequest: &conversation.AuthRequest{NodeID: nodeID, Password: password}},
	}}}
}

func statusEnvelope() *conversation.Envelope {
	return &conversation.Envelope{Payload: &conversation.Envelope_ServerCommand{ServerCommand: &conversation.ServerCommand{
		Kind: &conversation.ServerCommand_GetServerStatus{GetServerStatus: &conversation.GetServerStatus{}},
	}}}
}

func containerUpdateEnvelope(ids []string) *conversation.Envelope {
	return &conversation.Envelope{Payload: &conversation.Envelope_NodeResponse{NodeResponse: &conversation.NodeResponse{
		Kind: &conversation.NodeResponse_NodeContainers{NodeContainers: &conversation.NodeContainers{
			Containers: ids,
			RequestKey: &conversation.RequestKey{
				RequestType: conversation.RequestTypeUpdateContainerInfo,
				RequestID:   conversation.RequestKey_Unspecific{Unspecific: true},
			},
		}},
	}}}
}

func errorEnvelope(err error, key *conversation.RequestKey) *conversation.Envelope {
	return &conversation.Envelope{Payload: &conversation.Envelope_NodeResponse{NodeResponse: &conversation.NodeResponse{
		Kind: &conversation.NodeResponse_Error{Error: &conversation.NodeError{Message: err.Error(), RequestKey: key}},
	}}}
}

func actionEnvelope(containerID, action, message string, key *conversation.RequestKey) *conversation.Envelope {
	return &conversation.Envelope{Payload: &conversation.Envelope_NodeResponse{NodeResponse: &conversation.NodeResponse{
		Kind: &conversation.NodeResponse_ContainerAction{ContainerAction: &conversation.ContainerAction{
			ContainerID: containerID,
			Action:      action,
			Message:     message,
			RequestKey:  key,
		}},
	}}}
}
