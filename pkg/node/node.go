package node

import (
	"context"
	"fmt"

	"github.com/DaDaDaTheoryNow/docklord/pkg/config"
	"github.com/DaDaDaTheoryNow/docklord/pkg/health"
	"github.com/DaDaDaTheoryNow/docklord/pkg/log"
)

// Agent is the top-level Node process: a container engine adapter plus the
// Conversation client that keeps it connected to the Coordinator.
type Agent struct {
	cfg    config.Node
	engine *ContainerdEngine
	client *Client
}

// New builds a Node agent from cfg, dialing the local containerd socket.
func New(cfg config.Node) (*Agent, error) {
	engine, err := NewContainerdEngine(cfg.ContainerdSock, "")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize container engine: %w", err)
	}

	return &Agent{
		cfg:    cfg,
		engine: engine,
		client: NewClient(cfg, engine),
	}, nil
}

// Run connects to the Coordinator and serves NodeCommands until ctx is
// canceled, reconnecting across transient disconnects.
func (a *Agent) Run(ctx context.Context) error {
	defer a.engine.Close()

	logger := log.WithNodeID(a.cfg.NodeID)
	logger.Info().
		Str("coordinator_addr", a.cfg.CoordinatorAddr).
		Str("containerd_socket", a.cfg.ContainerdSock).
		Msg("node agent starting")

	result := health.NewUnixChecker(a.cfg.ContainerdSock).Check(ctx)
	if !result.Healthy {
		logger.Warn().Str("reason", result.Message).Msg("containerd socket unreachable at startup, will keep retrying on demand")
	}

	return a.client.Serve(ctx)
}
