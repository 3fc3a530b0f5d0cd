package coordinator

import (
	"encoding/json"
	"net/http"
)

// ApiErrorDetail is the message/detail pair nested inside ApiError.
type ApiErrorDetail struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// ApiError is the JSON error body every REST endpoint returns on failure
// once a request_id has been minted.
type ApiError struct {
	ReqUUID string         `json:"req_uuid"`
	Error   ApiErrorDetail `json:"error"`
}

// simpleError is the body for failures that carry no request id: a REST
// request that could not be dispatched (see writePublishFailure) and a
// WebSocket observer naming an unregistered node (see writeNotRegistered).
type simpleError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writePublishFailure handles a request that could not be dispatched: no RPC
// sessions are connected to the coordinator at all, or a pending entry
// already exists for the request id.
func writePublishFailure(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, simpleError{Error: "Failed to send request to server"})
}

func writeTimeout(w http.ResponseWriter, reqID string) {
	writeJSON(w, http.StatusRequestTimeout, ApiError{
		ReqUUID: reqID,
		Error:   ApiErrorDetail{Message: "Timeout waiting for node response", Detail: "Timeout waiting for node response"},
	})
}

func writeChannelClosed(w http.ResponseWriter, reqID string) {
	writeJSON(w, http.StatusInternalServerError, ApiError{
		ReqUUID: reqID,
		Error:   ApiErrorDetail{Message: "Response channel closed", Detail: "Node dropped oneshot channel"},
	})
}

func writeNodeError(w http.ResponseWriter, reqID, nodeMessage string) {
	writeJSON(w, http.StatusBadRequest, ApiError{
		ReqUUID: reqID,
		Error:   ApiErrorDetail{Message: "Node error", Detail: nodeMessage},
	})
}

// writeNotRegistered handles a WebSocket observer naming a node with no
// live presence entry.
func writeNotRegistered(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, simpleError{Error: "Node not registered"})
}
