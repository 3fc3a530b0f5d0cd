package node

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/containerd/containerd/namespaces"

	"github.com/DaDaDaTheoryNow/docklord/api/conversation"
	"github.com/DaDaDaTheoryNow/docklord/pkg/log"
)

const (
	// DefaultNamespace is the containerd namespace the Node operates in.
	DefaultNamespace = "docklord"

	// DefaultSocketPath is the default containerd socket path.
	DefaultSocketPath = "/run/containerd/containerd.sock"

	// DefaultLogDir is where container stdout/stderr is captured so it
	// can be served back through GetContainerLogs.
	DefaultLogDir = "/var/log/docklord"

	stopGracePeriod = 10 * time.Second
)

// ContainerdEngine implements Engine against a containerd socket.
type ContainerdEngine struct {
	client    *containerd.Client
	namespace string
	logDir    string
}

// NewContainerdEngine dials socketPath and returns an Engine that captures
// container output under logDir for later retrieval.
func NewContainerdEngine(socketPath, logDir string) (*ContainerdEngine, error) {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	if logDir == "" {
		logDir = DefaultLogDir
	}

	client, err := containerd.New(socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to containerd: %w", err)
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &ContainerdEngine{client: client, namespace: DefaultNamespace, logDir: logDir}, nil
}

// Close releases the underlying containerd connection.
func (e *ContainerdEngine) Close() error {
	return e.client.Close()
}

func (e *ContainerdEngine) logPath(containerID string) string {
	return filepath.Join(e.logDir, containerID+".log")
}

func (e *ContainerdEngine) ListContainers(ctx context.Context) ([]string, error) {
	ctx = namespaces.WithNamespace(ctx, e.namespace)

	containers, err := e.client.Containers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	ids := make([]string, 0, len(containers))
	for _, c := range containers {
		ids = append(ids, c.ID())
	}
	return ids, nil
}

func (e *ContainerdEngine) ListContainersWithStatus(ctx context.Context) ([]conversation.ContainerWithStatus, error) {
	ctx = namespaces.WithNamespace(ctx, e.namespace)

	containers, err := e.client.Containers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	result := make([]conversation.ContainerWithStatus, 0, len(containers))
	for _, c := range containers {
		cws, err := e.containerWithStatus(ctx, c)
		if err != nil {
			log.WithComponent("node").Warn().Err(err).Str("container_id", c.ID()).Msg("skipping unreadable container")
			continue
		}
		result = append(result, cws)
	}
	return result, nil
}

func (e *ContainerdEngine) containerWithStatus(ctx context.Context, c containerd.Container) (conversation.ContainerWithStatus, error) {
	info, err := c.Info(ctx)
	if err != nil {
		return conversation.ContainerWithStatus{}, fmt.Errorf("failed to get container info: %w", err)
	}

	cws := conversation.ContainerWithStatus{
		ContainerID: c.ID(),
		Created:     info.CreatedAt.UTC().Format(time.RFC3339),
		Status:      "created",
	}

	task, err := c.Task(ctx, nil)
	if err != nil {
		return cws, nil
	}

	status, err := task.Status(ctx)
	if err != nil {
		return conversation.ContainerWithStatus{}, fmt.Errorf("failed to get task status: %w", err)
	}

	switch status.Status {
	case containerd.Running:
		cws.Status = "running"
	case containerd.Paused:
		cws.Status = "paused"
	case containerd.Stopped:
		cws.Status = "exited"
		cws.ExitCode = int32(status.ExitStatus)
		if !status.ExitTime.IsZero() {
			cws.FinishedAt = status.ExitTime.UTC().Format(time.RFC3339)
		}
	default:
		cws.Status = "unknown"
	}
	return cws, nil
}

func (e *ContainerdEngine) ContainerStatus(ctx context.Context, containerID string) (conversation.ContainerStatusMsg, error) {
	ctx = namespaces.WithNamespace(ctx, e.namespace)

	c, err := e.client.LoadContainer(ctx, containerID)
	if err != nil {
		return conversation.ContainerStatusMsg{}, fmt.Errorf("failed to load container %s: %w", containerID, err)
	}

	cws, err := e.containerWithStatus(ctx, c)
	if err != nil {
		return conversation.ContainerStatusMsg{}, err
	}

	return conversation.ContainerStatusMsg{
		Status:     cws.Status,
		Created:    cws.Created,
		StartedAt:  cws.StartedAt,
		FinishedAt: cws.FinishedAt,
		ExitCode:   cws.ExitCode,
	}, nil
}

func (e *ContainerdEngine) StartContainer(ctx context.Context, containerID string) error {
	ctx = namespaces.WithNamespace(ctx, e.namespace)

	c, err := e.client.LoadContainer(ctx, containerID)
	if err != nil {
		return fmt.Errorf("failed to load container %s: %w", containerID, err)
	}

	logFile, err := os.OpenFile(e.logPath(containerID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file for %s: %w", containerID, err)
	}

	task, err := c.NewTask(ctx, cio.NewCreator(cio.WithStreams(nil, logFile, logFile)))
	if err != nil {
		logFile.Close()
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := task.Start(ctx); err != nil {
		return fmt.Errorf("failed to start task: %w", err)
	}
	return nil
}

func (e *ContainerdEngine) StopContainer(ctx context.Context, containerID string) error {
	ctx = namespaces.WithNamespace(ctx, e.namespace)

	c, err := e.client.LoadContainer(ctx, containerID)
	if err != nil {
		return fmt.Errorf("failed to load container %s: %w", containerID, err)
	}

	task, err := c.Task(ctx, nil)
	if err != nil {
		return nil
	}

	stopCtx, cancel := context.WithTimeout(ctx, stopGracePeriod)
	defer cancel()

	if err := task.Kill(stopCtx, syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to kill task: %w", err)
	}

	statusC, err := task.Wait(stopCtx)
	if err != nil {
		return fmt.Errorf("failed to wait for task: %w", err)
	}

	select {
	case <-statusC:
	case <-stopCtx.Done():
		if err := task.Kill(ctx, syscall.SIGKILL); err != nil {
			return fmt.Errorf("failed to force kill task: %w", err)
		}
		<-statusC
	}

	if _, err := task.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (e *ContainerdEngine) DeleteContainer(ctx context.Context, containerID string) error {
	ctx = namespaces.WithNamespace(ctx, e.namespace)

	c, err := e.client.LoadContainer(ctx, containerID)
	if err != nil {
		return nil
	}

	if _, err := c.Task(ctx, nil); err == nil {
		if err := e.StopContainer(ctx, containerID); err != nil {
			log.WithComponent("node").Warn().Err(err).Str("container_id", containerID).Msg("failed to stop container before delete")
		}
	}

	if err := c.Delete(ctx, containerd.WithSnapshotCleanup); err != nil {
		return fmt.Errorf("failed to delete container: %w", err)
	}
	return nil
}

func (e *ContainerdEngine) ContainerLogs(_ context.Context, containerID string, tail int32, _ bool, since string) ([]string, error) {
	f, err := os.Open(e.logPath(containerID))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to open log file for %s: %w", containerID, err)
	}
	defer f.Close()

	var sinceTime time.Time
	if since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			sinceTime = t
		}
	}

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !sinceTime.IsZero() && logLineBefore(line, sinceTime) {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file for %s: %w", containerID, err)
	}

	if tail > 0 && int32(len(lines)) > tail {
		lines = lines[len(lines)-int(tail):]
	}
	return lines, nil
}

// logLineBefore reports whether line starts with an RFC3339 timestamp
// (followed by a space) that is older than since. Lines not timestamped by
// the writer are never filtered out.
func logLineBefore(line string, since time.Time) bool {
	ts, _, found := strings.Cut(line, " ")
	if !found {
		return false
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return false
	}
	return t.Before(since)
}

func (e *ContainerdEngine) Watch(ctx context.Context) (<-chan []string, error) {
	ctx = namespaces.WithNamespace(ctx, e.namespace)

	envCh, errCh := e.client.Subscribe(ctx,
		`topic=="/tasks/start"`,
		`topic=="/tasks/exit"`,
		`topic=="/tasks/delete"`,
		`topic=="/containers/create"`,
		`topic=="/containers/delete"`,
	)

	out := make(chan []string, 1)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-errCh:
				if err != nil {
					log.WithComponent("node").Warn().Err(err).Msg("containerd event subscription ended")
				}
				return
			case _, ok := <-envCh:
				if !ok {
					return
				}
				ids, err := e.ListContainers(ctx)
				if err != nil {
					log.WithComponent("node").Warn().Err(err).Msg("failed to list containers after event")
					continue
				}
				select {
				case out <- ids:
				default:
				}
			}
		}
	}()
	return out, nil
}
