// Package node implements the Node agent: it holds one long-lived gRPC
// stream to the Coordinator and answers container queries against a
// local container engine.
package node

import (
	"context"

	"github.com/DaDaDaTheoryNow/docklord/api/conversation"
)

// Engine abstracts the local container runtime so the Conversation client
// can be driven against a fake in tests without a real containerd socket.
type Engine interface {
	// ListContainers returns the IDs of every container in the engine's
	// namespace, running or not.
	ListContainers(ctx context.Context) ([]string, error)

	// ListContainersWithStatus returns the same containers along with
	// their current lifecycle status.
	ListContainersWithStatus(ctx context.Context) ([]conversation.ContainerWithStatus, error)

	// ContainerStatus returns the lifecycle status of a single container.
	ContainerStatus(ctx context.Context, containerID string) (conversation.ContainerStatusMsg, error)

	// StartContainer starts an already-created container's task.
	StartContainer(ctx context.Context, containerID string) error

	// StopContainer sends SIGTERM to a running container's task, escalating
	// to SIGKILL if it doesn't exit within a grace period.
	StopContainer(ctx context.Context, containerID string) error

	// DeleteContainer stops (if running) and removes a container and its
	// snapshot.
	DeleteContainer(ctx context.Context, containerID string) error

	// ContainerLogs returns up to tail lines of a container's captured
	// output, optionally restricted to entries at or after since (an
	// RFC3339 timestamp). follow is accepted for protocol symmetry with
	// the REST façade but has no effect: a NodeResponse is a single
	// message, not a stream, so there is nothing to follow onto.
	ContainerLogs(ctx context.Context, containerID string, tail int32, follow bool, since string) ([]string, error)

	// Watch returns a channel that receives the full container id list
	// when the engine observes a lifecycle event (create, start, exit,
	// delete). A list is dropped if the receiver has not yet taken the
	// previous one. The channel is closed when ctx is canceled or the
	// underlying event subscription ends.
	Watch(ctx context.Context) (<-chan []string, error)
}
