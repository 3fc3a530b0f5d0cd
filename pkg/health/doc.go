/*
Package health provides a small, pluggable health-check framework: a common
Checker interface with HTTP, TCP, Unix-socket, and Exec implementations,
plus Status, which tracks consecutive failures/successes over time so a
single flaky check doesn't flip a component's reported health.

# Checker Interface

	type Checker interface {
		Check(ctx context.Context) Result
		Type() CheckType
	}

Result carries Healthy, a human-readable Message, and timing information.
Every checker respects ctx's deadline.

# Implementations

HTTPChecker performs a GET/POST/HEAD against a URL and treats a
configurable status range as healthy. TCPChecker and UnixChecker dial a
TCP address or Unix socket path respectively and treat a successful
connection as healthy — UnixChecker is the one the Node agent uses at
startup to probe the local containerd socket without blocking startup on
it (an unreachable socket is logged, not fatal; the Conversation client
keeps reconnecting regardless). ExecChecker runs a command and treats
exit code 0 as healthy.

# Status and hysteresis

Status.Update(result, config) implements simple hysteresis: Config.Retries
consecutive failures are required before a component flips from healthy to
unhealthy, and a single success flips it back. The Coordinator's /healthz
aggregate does not use Status: it reports the components registered in
pkg/metrics (see pkg/metrics/health.go), whose health is set directly by
the caller.
*/
package health
