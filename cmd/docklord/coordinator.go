package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DaDaDaTheoryNow/docklord/pkg/config"
	"github.com/DaDaDaTheoryNow/docklord/pkg/coordinator"
	"github.com/DaDaDaTheoryNow/docklord/pkg/log"
	"github.com/DaDaDaTheoryNow/docklord/pkg/metrics"
	"github.com/spf13/cobra"
)

var coordinatorCmd = &cobra.Command{
	Use:   "coordinator",
	Short: "Run the Coordinator: gRPC session hub plus REST/WebSocket façade",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.DefaultCoordinator()

		if v, _ := cmd.Flags().GetString("rpc-addr"); v != "" {
			cfg.RPCAddr = v
		}
		if v, _ := cmd.Flags().GetString("http-addr"); v != "" {
			cfg.HTTPAddr = v
		}
		if v, _ := cmd.Flags().GetInt("command-bus-capacity"); v > 0 {
			cfg.CommandBusCapacity = v
		}
		if v, _ := cmd.Flags().GetInt("node-bus-capacity"); v > 0 {
			cfg.NodeBusCapacity = v
		}
		if v, _ := cmd.Flags().GetInt("outbound-capacity"); v > 0 {
			cfg.OutboundCapacity = v
		}

		metrics.SetVersion(Version)
		metrics.RegisterComponent("grpc", true, "ready")
		metrics.RegisterComponent("http", true, "ready")

		c := coordinator.New(cfg)

		ctx, cancel := context.WithCancel(context.Background())
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			log.Logger.Info().Msg("shutdown signal received")
			cancel()
		}()

		if err := c.Run(ctx); err != nil {
			return fmt.Errorf("coordinator exited: %w", err)
		}
		return nil
	},
}

func init() {
	coordinatorCmd.Flags().String("rpc-addr", "", "gRPC listen address (overrides DOCKLORD_RPC_ADDR)")
	coordinatorCmd.Flags().String("http-addr", "", "HTTP listen address (overrides DOCKLORD_HTTP_ADDR)")
	coordinatorCmd.Flags().Int("command-bus-capacity", 0, "per-session command bus subscription buffer (overrides DOCKLORD_COMMAND_BUS_CAPACITY)")
	coordinatorCmd.Flags().Int("node-bus-capacity", 0, "per-observer node event bus subscription buffer (overrides DOCKLORD_NODE_BUS_CAPACITY)")
	coordinatorCmd.Flags().Int("outbound-capacity", 0, "per-session outbound gRPC send buffer (overrides DOCKLORD_OUTBOUND_CAPACITY)")
}
