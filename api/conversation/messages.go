package conversation

import "encoding/json"

// Envelope is the single message carried in both directions on the
// Conversation stream. At most one payload is ever set; an Envelope with
// no payload is dropped by whoever receives it.
type Envelope struct {
	Payload isEnvelope_Payload
}

type isEnvelope_Payload interface{ isEnvelope_Payload() }

type Envelope_ServerCommand struct{ ServerCommand *ServerCommand }
type Envelope_ServerResponse struct{ ServerResponse *ServerResponse }
type Envelope_NodeCommand struct{ NodeCommand *NodeCommand }
type Envelope_NodeResponse struct{ NodeResponse *NodeResponse }

func (*Envelope_ServerCommand) isEnvelope_Payload()  {}
func (*Envelope_ServerResponse) isEnvelope_Payload() {}
func (*Envelope_NodeCommand) isEnvelope_Payload()    {}
func (*Envelope_NodeResponse) isEnvelope_Payload()   {}

func (e *Envelope) GetServerCommand() *ServerCommand {
	if e == nil {
		return nil
	}
	if p, ok := e.Payload.(*Envelope_ServerCommand); ok {
		return p.ServerCommand
	}
	return nil
}

func (e *Envelope) GetServerResponse() *ServerResponse {
	if e == nil {
		return nil
	}
	if p, ok := e.Payload.(*Envelope_ServerResponse); ok {
		return p.ServerResponse
	}
	return nil
}

func (e *Envelope) GetNodeCommand() *NodeCommand {
	if e == nil {
		return nil
	}
	if p, ok := e.Payload.(*Envelope_NodeCommand); ok {
		return p.NodeCommand
	}
	return nil
}

func (e *Envelope) GetNodeResponse() *NodeResponse {
	if e == nil {
		return nil
	}
	if p, ok := e.Payload.(*Envelope_NodeResponse); ok {
		return p.NodeResponse
	}
	return nil
}

type envelopeWire struct {
	ServerCommand  *ServerCommand  `json:"server_command,omitempty"`
	ServerResponse *ServerResponse `json:"server_response,omitempty"`
	NodeCommand    *NodeCommand    `json:"node_command,omitempty"`
	NodeResponse   *NodeResponse   `json:"node_response,omitempty"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	var w envelopeWire
	switch p := e.Payload.(type) {
	case *Envelope_ServerCommand:
		w.ServerCommand = p.ServerCommand
	case *Envelope_ServerResponse:
		w.ServerResponse = p.ServerResponse
	case *Envelope_NodeCommand:
		w.NodeCommand = p.NodeCommand
	case *Envelope_NodeResponse:
		w.NodeResponse = p.NodeResponse
	}
	return json.Marshal(w)
}

func (e *Envelope) UnmarshalJSON(data []byte) error {
	var w envelopeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.ServerCommand != nil:
		e.Payload = &Envelope_ServerCommand{w.ServerCommand}
	case w.ServerResponse != nil:
		e.Payload = &Envelope_ServerResponse{w.ServerResponse}
	case w.NodeCommand != nil:
		e.Payload = &Envelope_NodeCommand{w.NodeCommand}
	case w.NodeResponse != nil:
		e.Payload = &Envelope_NodeResponse{w.NodeResponse}
	default:
		e.Payload = nil
	}
	return nil
}

// ServerCommand is a command exchanged between a Node and the Coordinator
// about the session itself, rather than about a container.
type ServerCommand struct {
	Kind isServerCommand_Kind
}

type isServerCommand_Kind interface{ isServerCommand_Kind() }

type ServerCommand_AuthRequest struct{ AuthRequest *AuthRequest }
type ServerCommand_GetServerStatus struct{ GetServerStatus *GetServerStatus }

func (*ServerCommand_AuthRequest) isServerCommand_Kind()     {}
func (*ServerCommand_GetServerStatus) isServerCommand_Kind() {}

func (c *ServerCommand) GetAuthRequest() *AuthRequest {
	if c == nil {
		return nil
	}
	if k, ok := c.Kind.(*ServerCommand_AuthRequest); ok {
		return k.AuthRequest
	}
	return nil
}

func (c *ServerCommand) GetGetServerStatus() *GetServerStatus {
	if c == nil {
		return nil
	}
	if k, ok := c.Kind.(*ServerCommand_GetServerStatus); ok {
		return k.GetServerStatus
	}
	return nil
}

type serverCommandWire struct {
	AuthRequest     *AuthRequest     `json:"auth_request,omitempty"`
	GetServerStatus *GetServerStatus `json:"get_server_status,omitempty"`
}

func (c ServerCommand) MarshalJSON() ([]byte, error) {
	var w serverCommandWire
	switch k := c.Kind.(type) {
	case *ServerCommand_AuthRequest:
		w.AuthRequest = k.AuthRequest
	case *ServerCommand_GetServerStatus:
		if k.GetServerStatus == nil {
			w.GetServerStatus = &GetServerStatus{}
		} else {
			w.GetServerStatus = k.GetServerStatus
		}
	}
	return json.Marshal(w)
}

func (c *ServerCommand) UnmarshalJSON(data []byte) error {
	var w serverCommandWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.AuthRequest != nil:
		c.Kind = &ServerCommand_AuthRequest{w.AuthRequest}
	case w.GetServerStatus != nil:
		c.Kind = &ServerCommand_GetServerStatus{w.GetServerStatus}
	default:
		c.Kind = nil
	}
	return nil
}

// AuthRequest authenticates a Node session under (NodeID, Password).
type AuthRequest struct {
	NodeID   string `json:"node_id"`
	Password string `json:"password"`
}

// GetServerStatus asks the Coordinator for its own liveness/uptime.
type GetServerStatus struct{}

// ServerResponse carries a reply to a ServerCommand.
type ServerResponse struct {
	Kind isServerResponse_Kind
}

type isServerResponse_Kind interface{ isServerResponse_Kind() }

type ServerResponse_ServerStatus struct{ ServerStatus *ServerStatus }
type ServerResponse_AuthResponse struct{ AuthResponse *AuthResponse }

func (*ServerResponse_ServerStatus) isServerResponse_Kind() {}
func (*ServerResponse_AuthResponse) isServerResponse_Kind() {}

type serverResponseWire struct {
	ServerStatus *ServerStatus `json:"server_status,omitempty"`
	AuthResponse *AuthResponse `json:"auth_response,omitempty"`
}

func (r ServerResponse) MarshalJSON() ([]byte, error) {
	var w serverResponseWire
	switch k := r.Kind.(type) {
	case *ServerResponse_ServerStatus:
		w.ServerStatus = k.ServerStatus
	case *ServerResponse_AuthResponse:
		w.AuthResponse = k.AuthResponse
	}
	return json.Marshal(w)
}

func (r *ServerResponse) UnmarshalJSON(data []byte) error {
	var w serverResponseWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.ServerStatus != nil:
		r.Kind = &ServerResponse_ServerStatus{w.ServerStatus}
	case w.AuthResponse != nil:
		r.Kind = &ServerResponse_AuthResponse{w.AuthResponse}
	default:
		r.Kind = nil
	}
	return nil
}

// ServerStatus is the Coordinator's reply to GetServerStatus.
type ServerStatus struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// AuthResponse would acknowledge a successful AuthRequest. The reference
// Coordinator never sends one (see DESIGN.md, Open Question decisions);
// the variant exists so a future protocol revision has somewhere to put it.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RequestType enumerates the kinds of node-directed request a RequestKey
// can correlate to.
type RequestType int32

const (
	RequestTypeGetContainers RequestType = iota
	RequestTypeGetContainersWithStatus
	RequestTypeGetContainerStatus
	RequestTypeStartContainer
	RequestTypeStopContainer
	RequestTypeDeleteContainer
	RequestTypeGetContainerLogs
	RequestTypeUpdateContainerInfo
)

func (t RequestType) String() string {
	switch t {
	case RequestTypeGetContainers:
		return "GetContainers"
	case RequestTypeGetContainersWithStatus:
		return "GetContainersWithStatus"
	case RequestTypeGetContainerStatus:
		return "GetContainerStatus"
	case RequestTypeStartContainer:
		return "StartContainer"
	case RequestTypeStopContainer:
		return "StopContainer"
	case RequestTypeDeleteContainer:
		return "DeleteContainer"
	case RequestTypeGetContainerLogs:
		return "GetContainerLogs"
	case RequestTypeUpdateContainerInfo:
		return "UpdateContainerInfo"
	default:
		return "Unknown"
	}
}

// RequestKey correlates a NodeResponse either to a specific outstanding
// request (Value) or marks it as a spontaneous update with no waiting
// caller (Unspecific).
type RequestKey struct {
	RequestType RequestType
	RequestID   isRequestKey_RequestID
}

type isRequestKey_RequestID interface{ isRequestKey_RequestID() }

type RequestKey_Value struct{ Value string }
type RequestKey_Unspecific struct{ Unspecific bool }

func (RequestKey_Value) isRequestKey_RequestID()      {}
func (RequestKey_Unspecific) isRequestKey_RequestID() {}

// IsUnspecific reports whether this key marks a spontaneous update rather
// than a correlated reply.
func (k *RequestKey) IsUnspecific() bool {
	if k == nil {
		return true
	}
	_, ok := k.RequestID.(RequestKey_Unspecific)
	return ok
}

// Value returns the correlated request id and whether one was present.
func (k *RequestKey) Value() (string, bool) {
	if k == nil {
		return "", false
	}
	v, ok := k.RequestID.(RequestKey_Value)
	if !ok {
		return "", false
	}
	return v.Value, true
}

type requestKeyWire struct {
	RequestType int32  `json:"request_type"`
	Value       string `json:"value,omitempty"`
	Unspecific  *bool  `json:"unspecific,omitempty"`
}

func (k RequestKey) MarshalJSON() ([]byte, error) {
	w := requestKeyWire{RequestType: int32(k.RequestType)}
	switch v := k.RequestID.(type) {
	case RequestKey_Value:
		w.Value = v.Value
	case RequestKey_Unspecific:
		b := v.Unspecific
		w.Unspecific = &b
	}
	return json.Marshal(w)
}

func (k *RequestKey) UnmarshalJSON(data []byte) error {
	var w requestKeyWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	k.RequestType = RequestType(w.RequestType)
	if w.Unspecific != nil {
		k.RequestID = RequestKey_Unspecific{*w.Unspecific}
	} else {
		k.RequestID = RequestKey_Value{w.Value}
	}
	return nil
}
