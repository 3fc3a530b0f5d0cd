package coordinator

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/DaDaDaTheoryNow/docklord/api/conversation"
	"github.com/DaDaDaTheoryNow/docklord/pkg/bus"
	"github.com/DaDaDaTheoryNow/docklord/pkg/config"
	"github.com/DaDaDaTheoryNow/docklord/pkg/log"
	"github.com/DaDaDaTheoryNow/docklord/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"google.golang.org/grpc"
)

// Coordinator owns the shared routing-engine state and the two listeners
// (gRPC for nodes, HTTP for REST/WebSocket callers) that front it.
type Coordinator struct {
	cfg        config.Coordinator
	presence   *Presence
	pending    *Pending
	commandBus *bus.Bus[OutboundRequest]

	grpcServer *grpc.Server
	httpServer *http.Server
}

// New builds a Coordinator from cfg. It does not start listening; call Run.
func New(cfg config.Coordinator) *Coordinator {
	c := &Coordinator{
		cfg:        cfg,
		presence:   NewPresence(),
		pending:    NewPending(),
		commandBus: bus.New[OutboundRequest](),
	}

	grpcServer := grpc.NewServer()
	svc := NewConversationServiceImpl(c.presence, c.pending, c.commandBus, cfg.CommandBusCapacity, cfg.OutboundCapacity)
	conversation.RegisterConversationServiceServer(grpcServer, svc)
	c.grpcServer = grpcServer

	mux := chi.NewRouter()
	mux.Mount("/", NewREST(c.pending, c.commandBus).Router())
	mux.Handle("/observe-containers", NewWS(c.presence, c.commandBus, cfg.NodeBusCapacity))
	mux.Get("/healthz", c.healthz)
	mux.Handle("/metrics", metrics.Handler())
	c.httpServer = &http.Server{Addr: cfg.HTTPAddr, Handler: mux}

	return c
}

func (c *Coordinator) healthz(w http.ResponseWriter, r *http.Request) {
	metrics.HealthHandler()(w, r)
}

// Run starts both listeners and blocks until ctx is canceled, at which
// point it gracefully stops both and returns. The first listener error (if
// either fails to bind) is returned immediately without waiting for ctx.
func (c *Coordinator) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", c.cfg.RPCAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		log.Logger.Info().Str("addr", c.cfg.RPCAddr).Msg("gRPC listener started")
		errCh <- c.grpcServer.Serve(lis)
	}()
	go func() {
		log.Logger.Info().Str("addr", c.cfg.HTTPAddr).Msg("HTTP listener started")
		if err := c.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	log.Logger.Info().Msg("shutting down")
	c.grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.httpServer.Shutdown(shutdownCtx)
}
