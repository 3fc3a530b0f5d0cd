package coordinator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DaDaDaTheoryNow/docklord/api/conversation"
	"github.com/DaDaDaTheoryNow/docklord/pkg/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// respondAfterDispatch simulates a Node by subscribing to the command bus
// and answering whatever NodeCommand arrives with a canned NodeResponse.
func respondAfterDispatch(t *testing.T, commandBus *bus.Bus[OutboundRequest], pending *Pending, answer func(cmd *conversation.NodeCommand) *conversation.NodeResponse) func() {
	sub, unsubscribe := commandBus.Subscribe(8)
	go func() {
		for req := range sub {
			nodeCmd := req.Envelope.GetNodeCommand()
			resp := answer(nodeCmd)
			key := resp.GetRequestKey()
			id, _ := key.Value()
			if ch, ok := pending.Remove(PendingKey{RequestID: id, RequestType: key.RequestType}); ok {
				ch <- &conversation.Envelope{Payload: &conversation.Envelope_NodeResponse{NodeResponse: resp}}
			}
		}
	}()
	return unsubscribe
}

func TestREST_GetContainersWithStatus(t *testing.T) {
	pending := NewPending()
	commandBus := bus.New[OutboundRequest]()
	unsub := respondAfterDispatch(t, commandBus, pending, func(cmd *conversation.NodeCommand) *conversation.NodeResponse {
		reqID := cmd.Kind.(*conversation.NodeCommand_GetNodeContainersWithStatus).GetNodeContainersWithStatus.RequestID
		return &conversation.NodeResponse{Kind: &conversation.NodeResponse_NodeContainersWithStatus{
			NodeContainersWithStatus: &conversation.NodeContainersWithStatus{
				Containers: []conversation.ContainerWithStatus{{ContainerID: "c1", Status: "running"}},
				RequestKey: &conversation.RequestKey{RequestType: conversation.RequestTypeGetContainersWithStatus, RequestID: conversation.RequestKey_Value{Value: reqID}},
			},
		}}
	})
	defer unsub()

	rest := NewREST(pending, commandBus)
	srv := httptest.NewServer(rest.Router())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/containers?node_id=a&password=b")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.NotEmpty(t, body["id"])
	assert.Len(t, body["containers"], 1)
}

func TestREST_TimeoutWhenNoNodeResponds(t *testing.T) {
	pending := NewPending()
	commandBus := bus.New[OutboundRequest]()
	// Keep at least one subscriber so SubscriberCount() > 0 and we reach
	// the timeout path rather than the publish-failure short circuit.
	_, unsub := commandBus.Subscribe(1)
	defer unsub()

	rest := NewREST(pending, commandBus)
	srv := httptest.NewServer(rest.Router())
	defer srv.Close()

	start := time.Now()
	res, err := http.Get(srv.URL + "/api/containers/c1/status?node_id=a&password=b")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusRequestTimeout, res.StatusCode)
	assert.Less(t, time.Since(start), 6*time.Second)
	assert.Equal(t, 0, pending.Len(), "pending entry must be cleaned up after timeout")
}

func TestREST_PublishFailureWhenNoSubscribers(t *testing.T) {
	pending := NewPending()
	commandBus := bus.New[OutboundRequest]()

	rest := NewREST(pending, commandBus)
	srv := httptest.NewServer(rest.Router())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/containers?node_id=a&password=b")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, 0, pending.Len())
}

func TestREST_NodeErrorMapsTo400(t *testing.T) {
	pending := NewPending()
	commandBus := bus.New[OutboundRequest]()
	unsub := respondAfterDispatch(t, commandBus, pending, func(cmd *conversation.NodeCommand) *conversation.NodeResponse {
		reqID := cmd.Kind.(*conversation.NodeCommand_StartContainer).StartContainer.RequestID
		return &conversation.NodeResponse{Kind: &conversation.NodeResponse_Error{
			Error: &conversation.NodeError{
				Message:    "container not found",
				RequestKey: &conversation.RequestKey{RequestType: conversation.RequestTypeStartContainer, RequestID: conversation.RequestKey_Value{Value: reqID}},
			},
		}}
	})
	defer unsub()

	rest := NewREST(pending, commandBus)
	srv := httptest.NewServer(rest.Router())
	defer srv.Close()

	res, err := http.Post(srv.URL+"/api/containers/c1/start?node_id=a&password=b", "application/json", nil)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	var apiErr ApiError
	require.NoError(t, json.NewDecoder(res.Body).Decode(&apiErr))
	assert.Equal(t, "Node error", apiErr.Error.Message)
	assert.Equal(t, "container not found", apiErr.Error.Detail)
}
