package health

import (
	"context"
	"fmt"
	"net"
	"time"
)

// UnixChecker performs health checks against a Unix domain socket, the
// same shape as TCPChecker but for local sockets like containerd's.
type UnixChecker struct {
	// Path is the filesystem path of the socket (e.g.
	// "/run/containerd/containerd.sock").
	Path string

	// Timeout is the connection timeout (default: 5 seconds)
	Timeout time.Duration
}

// NewUnixChecker creates a new Unix socket health checker.
func NewUnixChecker(path string) *UnixChecker {
	return &UnixChecker{
		Path:    path,
		Timeout: 5 * time.Second,
	}
}

// Check performs the Unix socket health check.
func (u *UnixChecker) Check(ctx context.Context) Result {
	start := time.Now()

	dialer := &net.Dialer{Timeout: u.Timeout}

	conn, err := dialer.DialContext(ctx, "unix", u.Path)
	if err != nil {
		return Result{
			Healthy:   false,
			Message:   fmt.Sprintf("connection failed: %v", err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}
	defer conn.Close()

	return Result{
		Healthy:   true,
		Message:   fmt.Sprintf("unix socket %s reachable", u.Path),
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}

// Type returns the health check type.
func (u *UnixChecker) Type() CheckType {
	return CheckTypeUnix
}

// WithTimeout sets the connection timeout.
func (u *UnixChecker) WithTimeout(timeout time.Duration) *UnixChecker {
	u.Timeout = timeout
	return u
}
