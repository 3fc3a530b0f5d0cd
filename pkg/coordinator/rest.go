package coordinator

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/DaDaDaTheoryNow/docklord/api/conversation"
	"github.com/DaDaDaTheoryNow/docklord/pkg/bus"
	"github.com/DaDaDaTheoryNow/docklord/pkg/log"
	"github.com/DaDaDaTheoryNow/docklord/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	containersTimeout      = 10 * time.Second
	containerStatusTimeout = 5 * time.Second
	containerActionTimeout = 10 * time.Second
	containerLogsTimeout   = 10 * time.Second
)

// REST is the HTTP façade translating container-management requests into
// NodeCommand envelopes correlated through the Pending table.
type REST struct {
	pending    *Pending
	commandBus *bus.Bus[OutboundRequest]
}

// NewREST builds the façade's router, mounted by the caller under whatever
// prefix it likes (docklord mounts it at the HTTP listener's root).
func NewREST(pending *Pending, commandBus *bus.Bus[OutboundRequest]) *REST {
	return &REST{pending: pending, commandBus: commandBus}
}

// Router returns a chi.Router with every endpoint from the container
// management surface registered.
func (rst *REST) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/api/containers", rst.getContainersWithStatus)
	r.Get("/api/containers/names", rst.getContainerNames)
	r.Get("/api/containers/{id}/status", rst.getContainerStatus)
	r.Post("/api/containers/{id}/start", rst.startContainer)
	r.Post("/api/containers/{id}/stop", rst.stopContainer)
	r.Delete("/api/containers/{id}", rst.deleteContainer)
	r.Get("/api/containers/{id}/logs", rst.getContainerLogs)
	return r
}

// authParams are the node_id/password query parameters every endpoint
// requires.
type authParams struct {
	nodeID   string
	password string
}

func parseAuthParams(r *http.Request) authParams {
	q := r.URL.Query()
	return authParams{nodeID: q.Get("node_id"), password: q.Get("password")}
}

// dispatch inserts a pending entry under key, publishes cmd addressed to
// auth on the command bus, and waits up to deadline for the reply. It
// returns the reply, or nil after it has already written the error
// response to w. endpoint labels the RESTRequestsTotal/RESTRequestDuration
// metrics recorded for this call.
func (rst *REST) dispatch(ctx context.Context, w http.ResponseWriter, auth authParams, key PendingKey, cmd *conversation.NodeCommand, deadline time.Duration, endpoint string) *conversation.NodeResponse {
	reqLog := log.WithRequestID(key.RequestID)

	timer := metrics.NewTimer()
	outcome := "ok"
	defer func() {
		metrics.RESTRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
		timer.ObserveDurationVec(metrics.RESTRequestDuration, endpoint)
	}()

	if rst.commandBus.SubscriberCount() == 0 {
		outcome = "no_subscribers"
		reqLog.Warn().Str("endpoint", endpoint).Msg("no nodes connected to the command bus")
		writePublishFailure(w)
		return nil
	}

	waiter, ok := rst.pending.Insert(key)
	if !ok {
		outcome = "duplicate_request_id"
		reqLog.Warn().Str("endpoint", endpoint).Msg("pending entry already exists for this request id")
		writePublishFailure(w)
		return nil
	}
	metrics.PendingRequests.Inc()
	defer metrics.PendingRequests.Dec()

	if dropped := rst.commandBus.Publish(OutboundRequest{
		NodeID:   auth.nodeID,
		Password: auth.password,
		Envelope: &conversation.Envelope{Payload: &conversation.Envelope_NodeCommand{NodeCommand: cmd}},
	}); dropped > 0 {
		metrics.CommandBusDropsTotal.Add(float64(dropped))
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	select {
	case env, open := <-waiter:
		if !open {
			outcome = "channel_closed"
			reqLog.Warn().Str("endpoint", endpoint).Msg("pending channel closed before a reply arrived")
			writeChannelClosed(w, key.RequestID)
			return nil
		}
		resp := env.GetNodeResponse()
		if nodeErr, isErr := resp.Kind.(*conversation.NodeResponse_Error); isErr {
			rst.pending.Remove(key)
			outcome = "node_error"
			reqLog.Warn().Str("endpoint", endpoint).Str("detail", nodeErr.Error.Message).Msg("node reported an error")
			writeNodeError(w, key.RequestID, nodeErr.Error.Message)
			return nil
		}
		return resp
	case <-ctx.Done():
		rst.pending.Remove(key)
		outcome = "timeout"
		reqLog.Warn().Str("endpoint", endpoint).Dur("deadline", deadline).Msg("timed out waiting for node reply")
		writeTimeout(w, key.RequestID)
		return nil
	}
}

func (rst *REST) getContainersWithStatus(w http.ResponseWriter, r *http.Request) {
	auth := parseAuthParams(r)
	reqID := uuid.NewString()
	key := PendingKey{RequestID: reqID, RequestType: conversation.RequestTypeGetContainersWithStatus}
	cmd := &conversation.NodeCommand{Kind: &conversation.NodeCommand_GetNodeContainersWithStatus{
		GetNodeContainersWithStatus: &conversation.GetNodeContainersWithStatus{RequestID: reqID},
	}}

	resp := rst.dispatch(r.Context(), w, auth, key, cmd, containersTimeout, "get_containers_with_status")
	if resp == nil {
		return
	}
	kind, ok := resp.Kind.(*conversation.NodeResponse_NodeContainersWithStatus)
	if !ok {
		writeNodeError(w, reqID, "unexpected reply kind")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         reqID,
		"containers": kind.NodeContainersWithStatus.Containers,
	})
}

func (rst *REST) getContainerNames(w http.ResponseWriter, r *http.Request) {
	auth := parseAuthParams(r)
	reqID := uuid.NewString()
	key := PendingKey{RequestID: reqID, RequestType: conversation.RequestTypeGetContainers}
	cmd := &conversation.NodeCommand{Kind: &conversation.NodeCommand_GetNodeContainers{
		GetNodeContainers: &conversation.GetNodeContainers{RequestID: reqID},
	}}

	resp := rst.dispatch(r.Context(), w, auth, key, cmd, containersTimeout, "get_container_names")
	if resp == nil {
		return
	}
	kind, ok := resp.Kind.(*conversation.NodeResponse_NodeContainers)
	if !ok {
		writeNodeError(w, reqID, "unexpected reply kind")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         reqID,
		"containers": kind.NodeContainers.Containers,
	})
}

func (rst *REST) getContainerStatus(w http.ResponseWriter, r *http.Request) {
	containerID := chi.URLParam(r, "id")
	auth := parseAuthParams(r)
	reqID := uuid.NewString()
	key := PendingKey{RequestID: reqID, RequestType: conversation.RequestTypeGetContainerStatus}
	cmd := &conversation.NodeCommand{Kind: &conversation.NodeCommand_GetContainerStatus{
		GetContainerStatus: &conversation.GetContainerStatus{RequestID: reqID, ContainerID: containerID},
	}}

	resp := rst.dispatch(r.Context(), w, auth, key, cmd, containerStatusTimeout, "get_container_status")
	if resp == nil {
		return
	}
	kind, ok := resp.Kind.(*conversation.NodeResponse_ContainerStatus)
	if !ok {
		writeNodeError(w, reqID, "unexpected reply kind")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           reqID,
		"container_id": containerID,
		"status":       kind.ContainerStatus,
	})
}

func (rst *REST) runAction(w http.ResponseWriter, r *http.Request, action string, requestType conversation.RequestType, build func(reqID, containerID string) *conversation.NodeCommand) {
	containerID := chi.URLParam(r, "id")
	auth := parseAuthParams(r)
	reqID := uuid.NewString()
	key := PendingKey{RequestID: reqID, RequestType: requestType}

	resp := rst.dispatch(r.Context(), w, auth, key, build(reqID, containerID), containerActionTimeout, action+"_container")
	if resp == nil {
		return
	}
	kind, ok := resp.Kind.(*conversation.NodeResponse_ContainerAction)
	if !ok {
		writeNodeError(w, reqID, "unexpected reply kind")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           reqID,
		"container_id": containerID,
		"action":       action,
		"result":       kind.ContainerAction,
	})
}

func (rst *REST) startContainer(w http.ResponseWriter, r *http.Request) {
	rst.runAction(w, r, "start", conversation.RequestTypeStartContainer, func(reqID, containerID string) *conversation.NodeCommand {
		return &conversation.NodeCommand{Kind: &conversation.NodeCommand_StartContainer{
			StartContainer: &conversation.StartContainer{RequestID: reqID, ContainerID: containerID},
		}}
	})
}

func (rst *REST) stopContainer(w http.ResponseWriter, r *http.Request) {
	rst.runAction(w, r, "stop", conversation.RequestTypeStopContainer, func(reqID, containerID string) *conversation.NodeCommand {
		return &conversation.NodeCommand{Kind: &conversation.NodeCommand_StopContainer{
			StopContainer: &conversation.StopContainer{RequestID: reqID, ContainerID: containerID},
		}}
	})
}

func (rst *REST) deleteContainer(w http.ResponseWriter, r *http.Request) {
	rst.runAction(w, r, "delete", conversation.RequestTypeDeleteContainer, func(reqID, containerID string) *conversation.NodeCommand {
		return &conversation.NodeCommand{Kind: &conversation.NodeCommand_DeleteContainer{
			DeleteContainer: &conversation.DeleteContainer{RequestID: reqID, ContainerID: containerID},
		}}
	})
}

func (rst *REST) getContainerLogs(w http.ResponseWriter, r *http.Request) {
	containerID := chi.URLParam(r, "id")
	auth := parseAuthParams(r)
	reqID := uuid.NewString()
	key := PendingKey{RequestID: reqID, RequestType: conversation.RequestTypeGetContainerLogs}

	tail := int32(100)
	if v := r.URL.Query().Get("tail"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			tail = int32(n)
		} else {
			log.Logger.Warn().Str("tail", v).Msg("ignoring malformed tail query parameter")
		}
	}
	follow := r.URL.Query().Get("follow") == "true"
	since := r.URL.Query().Get("since")

	cmd := &conversation.NodeCommand{Kind: &conversation.NodeCommand_GetContainerLogs{
		GetContainerLogs: &conversation.GetContainerLogs{
			RequestID:   reqID,
			ContainerID: containerID,
			Tail:        tail,
			Follow:      follow,
			Since:       since,
		},
	}}

	resp := rst.dispatch(r.Context(), w, auth, key, cmd, containerLogsTimeout, "get_container_logs")
	if resp == nil {
		return
	}
	kind, ok := resp.Kind.(*conversation.NodeResponse_ContainerLogs)
	if !ok {
		writeNodeError(w, reqID, "unexpected reply kind")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           reqID,
		"container_id": containerID,
		"logs":         kind.ContainerLogs,
	})
}
