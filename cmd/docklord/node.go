package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DaDaDaTheoryNow/docklord/pkg/config"
	"github.com/DaDaDaTheoryNow/docklord/pkg/log"
	"github.com/DaDaDaTheoryNow/docklord/pkg/node"
	"github.com/spf13/cobra"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Run a Node agent: connects to a Coordinator and serves container commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg config.Node
		cfg.NodeID, _ = cmd.Flags().GetString("node-id")
		cfg.Password, _ = cmd.Flags().GetString("password")
		cfg.CoordinatorAddr, _ = cmd.Flags().GetString("coordinator-addr")
		cfg.ContainerdSock, _ = cmd.Flags().GetString("containerd-socket")

		if configPath, _ := cmd.Flags().GetString("config"); configPath != "" {
			if err := cfg.ApplyFile(configPath); err != nil {
				return err
			}
		}

		defaults := config.DefaultNode()
		if cfg.CoordinatorAddr == "" {
			cfg.CoordinatorAddr = defaults.CoordinatorAddr
		}
		if cfg.ContainerdSock == "" {
			cfg.ContainerdSock = defaults.ContainerdSock
		}

		if cfg.NodeID == "" {
			return fmt.Errorf("--node-id is required (or set node_id in --config)")
		}
		if cfg.Password == "" {
			return fmt.Errorf("--password is required (or set password in --config)")
		}

		agent, err := node.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to start node agent: %w", err)
		}

		ctx, cancel := context.WithCancel(context.Background())
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			log.Logger.Info().Msg("shutdown signal received")
			cancel()
		}()

		return agent.Run(ctx)
	},
}

func init() {
	nodeCmd.Flags().String("node-id", "", "Node identifier presented to the Coordinator (required unless set in --config)")
	nodeCmd.Flags().String("password", "", "Password presented alongside node-id (required unless set in --config)")
	nodeCmd.Flags().String("coordinator-addr", "", "Coordinator gRPC address (overrides DOCKLORD_COORDINATOR_ADDR)")
	nodeCmd.Flags().String("containerd-socket", "", "containerd socket path (overrides DOCKLORD_CONTAINERD_SOCK)")
	nodeCmd.Flags().String("config", "", "optional YAML file supplying node_id/password/coordinator_addr")
}
