package coordinator

import (
	"encoding/json"
	"net/http"

	"github.com/DaDaDaTheoryNow/docklord/api/conversation"
	"github.com/DaDaDaTheoryNow/docklord/pkg/bus"
	"github.com/DaDaDaTheoryNow/docklord/pkg/log"
	"github.com/DaDaDaTheoryNow/docklord/pkg/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WS is the /observe-containers façade: one WebSocket connection per
// observed node, primed with its current container list and then fed
// spontaneous updates off that node's own event bus.
type WS struct {
	presence        *Presence
	commandBus      *bus.Bus[OutboundRequest]
	nodeBusCapacity int
	upgrader        websocket.Upgrader
}

// NewWS builds the WebSocket façade. nodeBusCapacity sizes the buffer each
// observer's subscription to its node's event bus gets (see
// pkg/config.Coordinator.NodeBusCapacity).
func NewWS(presence *Presence, commandBus *bus.Bus[OutboundRequest], nodeBusCapacity int) *WS {
	return &WS{
		presence:        presence,
		commandBus:      commandBus,
		nodeBusCapacity: nodeBusCapacity,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP lets WS be mounted directly on a router at the
// /observe-containers path.
func (ws *WS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws.ObserveContainers(w, r)
}

// ObserveContainers upgrades the request to a WebSocket and streams
// container updates for the node named by the node_id/password query
// parameters until either side closes the connection.
func (ws *WS) ObserveContainers(w http.ResponseWriter, r *http.Request) {
	auth := parseAuthParams(r)
	key := NodeKey{NodeID: auth.nodeID, Password: auth.password}

	nodeBus, ok := ws.presence.Lookup(key)
	if !ok {
		writeNotRegistered(w)
		return
	}

	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log.WithNodeID(auth.nodeID).Info().Msg("observer connected")
	metrics.WSObserversConnected.Inc()
	defer metrics.WSObserversConnected.Dec()

	sub, unsubscribe := nodeBus.Subscribe(ws.nodeBusCapacity)
	defer unsubscribe()

	if dropped := ws.commandBus.Publish(OutboundRequest{
		NodeID:   auth.nodeID,
		Password: auth.password,
		Envelope: &conversation.Envelope{Payload: &conversation.Envelope_NodeCommand{NodeCommand: &conversation.NodeCommand{
			Kind: &conversation.NodeCommand_GetNodeContainers{GetNodeContainers: &conversation.GetNodeContainers{RequestID: uuid.NewString()}},
		}}},
	}); dropped > 0 {
		metrics.CommandBusDropsTotal.Add(float64(dropped))
	}

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-readDone:
			log.WithNodeID(auth.nodeID).Info().Msg("observer disconnected")
			return
		case env, open := <-sub:
			if !open {
				return
			}
			if !ws.deliver(conn, env) {
				return
			}
		}
	}
}

// deliver writes env to conn if it's an eligible NodeContainers update,
// returning false if the write failed and the connection should close.
func (ws *WS) deliver(conn *websocket.Conn, env *conversation.Envelope) bool {
	resp := env.GetNodeResponse()
	kind, ok := resp.Kind.(*conversation.NodeResponse_NodeContainers)
	if !ok {
		return true
	}
	rk := kind.NodeContainers.RequestKey
	if rk == nil {
		return true
	}
	if rk.RequestType != conversation.RequestTypeGetContainers && rk.RequestType != conversation.RequestTypeUpdateContainerInfo {
		return true
	}

	body, err := json.Marshal(map[string]any{"containers": kind.NodeContainers.Containers})
	if err != nil {
		log.Logger.Error().Err(err).Msg("failed to marshal container update")
		return true
	}
	if err := conn.WriteMessage(websocket.TextMessage, body); err != nil {
		log.Logger.Warn().Err(err).Msg("failed to write to observer, closing")
		return false
	}
	return true
}
