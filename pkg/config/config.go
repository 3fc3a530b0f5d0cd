// Package config centralizes the Coordinator and Node's runtime
// configuration: listener addresses and channel capacities, each
// overridable by CLI flag or environment variable.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Coordinator holds the Coordinator process's runtime configuration.
type Coordinator struct {
	RPCAddr            string
	HTTPAddr           string
	CommandBusCapacity int
	NodeBusCapacity    int
	OutboundCapacity   int
}

// DefaultCoordinator returns the Coordinator defaults, with every field
// overridable by its corresponding DOCKLORD_* environment variable.
func DefaultCoordinator() Coordinator {
	return Coordinator{
		RPCAddr:            envOr("DOCKLORD_RPC_ADDR", "0.0.0.0:50051"),
		HTTPAddr:           envOr("DOCKLORD_HTTP_ADDR", "0.0.0.0:3000"),
		CommandBusCapacity: envOrInt("DOCKLORD_COMMAND_BUS_CAPACITY", 2048),
		NodeBusCapacity:    envOrInt("DOCKLORD_NODE_BUS_CAPACITY", 1024),
		OutboundCapacity:   envOrInt("DOCKLORD_OUTBOUND_CAPACITY", 32),
	}
}

// Node holds the Node agent's runtime configuration.
type Node struct {
	CoordinatorAddr string
	NodeID          string
	Password        string
	ContainerdSock  string
}

// DefaultNode returns the Node defaults.
func DefaultNode() Node {
	return Node{
		CoordinatorAddr: envOr("DOCKLORD_COORDINATOR_ADDR", "127.0.0.1:50051"),
		ContainerdSock:  envOr("DOCKLORD_CONTAINERD_SOCK", "/run/containerd/containerd.sock"),
	}
}

// NodeFile is the shape of an optional on-disk Node config file, letting
// credentials live outside the process's command line and environment.
type NodeFile struct {
	NodeID          string `yaml:"node_id"`
	Password        string `yaml:"password"`
	CoordinatorAddr string `yaml:"coordinator_addr"`
}

// ApplyFile loads path as a NodeFile and fills any field in n left at its
// zero value, so values already set on n (such as flags) win over the file.
// DefaultNode's environment values are not consulted here; a caller that
// applies them afterwards gives the file precedence over the environment.
func (n *Node) ApplyFile(path string) error {
	if path == "" {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading node config file: %w", err)
	}

	var f NodeFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parsing node config file: %w", err)
	}

	if n.NodeID == "" {
		n.NodeID = f.NodeID
	}
	if n.Password == "" {
		n.Password = f.Password
	}
	if n.CoordinatorAddr == "" {
		n.CoordinatorAddr = f.CoordinatorAddr
	}

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
