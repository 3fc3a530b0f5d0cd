package conversation

import "encoding/json"

// NodeCommand is a command the Coordinator routes to a Node on behalf of a
// REST or WebSocket caller.
type NodeCommand struct {
	Kind isNodeCommand_Kind
}

type isNodeCommand_Kind interface{ isNodeCommand_Kind() }

type NodeCommand_GetNodeContainers struct{ GetNodeContainers *GetNodeContainers }
type NodeCommand_GetNodeContainersWithStatus struct {
	GetNodeContainersWithStatus *GetNodeContainersWithStatus
}
type NodeCommand_GetContainerStatus struct{ GetContainerStatus *GetContainerStatus }
type NodeCommand_StartContainer struct{ StartContainer *StartContainer }
type NodeCommand_StopContainer struct{ StopContainer *StopContainer }
type NodeCommand_DeleteContainer struct{ DeleteContainer *DeleteContainer }
type NodeCommand_GetContainerLogs struct{ GetContainerLogs *GetContainerLogs }

func (*NodeCommand_GetNodeContainers) isNodeCommand_Kind()           {}
func (*NodeCommand_GetNodeContainersWithStatus) isNodeCommand_Kind() {}
func (*NodeCommand_GetContainerStatus) isNodeCommand_Kind()          {}
func (*NodeCommand_StartContainer) isNodeCommand_Kind()              {}
func (*NodeCommand_StopContainer) isNodeCommand_Kind()               {}
func (*NodeCommand_DeleteContainer) isNodeCommand_Kind()             {}
func (*NodeCommand_GetContainerLogs) isNodeCommand_Kind()            {}

type nodeCommandWire struct {
	GetNodeContainers           *GetNodeContainers           `json:"get_node_containers,omitempty"`
	GetNodeContainersWithStatus *GetNodeContainersWithStatus `json:"get_node_containers_with_status,omitempty"`
	GetContainerStatus          *GetContainerStatus          `json:"get_container_status,omitempty"`
	StartContainer              *StartContainer              `json:"start_container,omitempty"`
	StopContainer               *StopContainer               `json:"stop_container,omitempty"`
	DeleteContainer             *DeleteContainer             `json:"delete_container,omitempty"`
	GetContainerLogs            *GetContainerLogs            `json:"get_container_logs,omitempty"`
}

func (c NodeCommand) MarshalJSON() ([]byte, error) {
	var w nodeCommandWire
	switch k := c.Kind.(type) {
	case *NodeCommand_GetNodeContainers:
		w.GetNodeContainers = k.GetNodeContainers
	case *NodeCommand_GetNodeContainersWithStatus:
		w.GetNodeContainersWithStatus = k.GetNodeContainersWithStatus
	case *NodeCommand_GetContainerStatus:
		w.GetContainerStatus = k.GetContainerStatus
	case *NodeCommand_StartContainer:
		w.StartContainer = k.StartContainer
	case *NodeCommand_StopContainer:
		w.StopContainer = k.StopContainer
	case *NodeCommand_DeleteContainer:
		w.DeleteContainer = k.DeleteContainer
	case *NodeCommand_GetContainerLogs:
		w.GetContainerLogs = k.GetContainerLogs
	}
	return json.Marshal(w)
}

func (c *NodeCommand) UnmarshalJSON(data []byte) error {
	var w nodeCommandWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.GetNodeContainers != nil:
		c.Kind = &NodeCommand_GetNodeContainers{w.GetNodeContainers}
	case w.GetNodeContainersWithStatus != nil:
		c.Kind = &NodeCommand_GetNodeContainersWithStatus{w.GetNodeContainersWithStatus}
	case w.GetContainerStatus != nil:
		c.Kind = &NodeCommand_GetContainerStatus{w.GetContainerStatus}
	case w.StartContainer != nil:
		c.Kind = &NodeCommand_StartContainer{w.StartContainer}
	case w.StopContainer != nil:
		c.Kind = &NodeCommand_StopContainer{w.StopContainer}
	case w.DeleteContainer != nil:
		c.Kind = &NodeCommand_DeleteContainer{w.DeleteContainer}
	case w.GetContainerLogs != nil:
		c.Kind = &NodeCommand_GetContainerLogs{w.GetContainerLogs}
	default:
		c.Kind = nil
	}
	return nil
}

type GetNodeContainers struct {
	RequestID string `json:"request_id"`
}

type GetNodeContainersWithStatus struct {
	RequestID string `json:"request_id"`
}

type GetContainerStatus struct {
	RequestID   string `json:"request_id"`
	ContainerID string `json:"container_id"`
}

type StartContainer struct {
	RequestID   string `json:"request_id"`
	ContainerID string `json:"container_id"`
}

type StopContainer struct {
	RequestID   string `json:"request_id"`
	ContainerID string `json:"container_id"`
}

type DeleteContainer struct {
	RequestID   string `json:"request_id"`
	ContainerID string `json:"container_id"`
}

type GetContainerLogs struct {
	RequestID   string `json:"request_id"`
	ContainerID string `json:"container_id"`
	Tail        int32  `json:"tail"`
	Follow      bool   `json:"follow"`
	Since       string `json:"since"`
}

// NodeResponse is a reply (or spontaneous update) sent by a Node.
type NodeResponse struct {
	Kind isNodeResponse_Kind
}

type isNodeResponse_Kind interface{ isNodeResponse_Kind() }

type NodeResponse_NodeContainers struct{ NodeContainers *NodeContainers }
type NodeResponse_NodeContainersWithStatus struct {
	NodeContainersWithStatus *NodeContainersWithStatus
}
type NodeResponse_ContainerStatus struct{ ContainerStatus *ContainerStatusMsg }
type NodeResponse_ContainerAction struct{ ContainerAction *ContainerAction }
type NodeResponse_ContainerLogs struct{ ContainerLogs *ContainerLogs }
type NodeResponse_Error struct{ Error *NodeError }

func (*NodeResponse_NodeContainers) isNodeResponse_Kind()           {}
func (*NodeResponse_NodeContainersWithStatus) isNodeResponse_Kind() {}
func (*NodeResponse_ContainerStatus) isNodeResponse_Kind()          {}
func (*NodeResponse_ContainerAction) isNodeResponse_Kind()          {}
func (*NodeResponse_ContainerLogs) isNodeResponse_Kind()            {}
func (*NodeResponse_Error) isNodeResponse_Kind()                    {}

type nodeResponseWire struct {
	NodeContainers           *NodeContainers           `json:"node_containers,omitempty"`
	NodeContainersWithStatus *NodeContainersWithStatus `json:"node_containers_with_status,omitempty"`
	ContainerStatus          *ContainerStatusMsg       `json:"container_status,omitempty"`
	ContainerAction          *ContainerAction          `json:"container_action,omitempty"`
	ContainerLogs            *ContainerLogs            `json:"container_logs,omitempty"`
	Error                    *NodeError                `json:"error,omitempty"`
}

func (r NodeResponse) MarshalJSON() ([]byte, error) {
	var w nodeResponseWire
	switch k := r.Kind.(type) {
	case *NodeResponse_NodeContainers:
		w.NodeContainers = k.NodeContainers
	case *NodeResponse_NodeContainersWithStatus:
		w.NodeContainersWithStatus = k.NodeContainersWithStatus
	case *NodeResponse_ContainerStatus:
		w.ContainerStatus = k.ContainerStatus
	case *NodeResponse_ContainerAction:
		w.ContainerAction = k.ContainerAction
	case *NodeResponse_ContainerLogs:
		w.ContainerLogs = k.ContainerLogs
	case *NodeResponse_Error:
		w.Error = k.Error
	}
	return json.Marshal(w)
}

func (r *NodeResponse) UnmarshalJSON(data []byte) error {
	var w nodeResponseWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.NodeContainers != nil:
		r.Kind = &NodeResponse_NodeContainers{w.NodeContainers}
	case w.NodeContainersWithStatus != nil:
		r.Kind = &NodeResponse_NodeContainersWithStatus{w.NodeContainersWithStatus}
	case w.ContainerStatus != nil:
		r.Kind = &NodeResponse_ContainerStatus{w.ContainerStatus}
	case w.ContainerAction != nil:
		r.Kind = &NodeResponse_ContainerAction{w.ContainerAction}
	case w.ContainerLogs != nil:
		r.Kind = &NodeResponse_ContainerLogs{w.ContainerLogs}
	case w.Error != nil:
		r.Kind = &NodeResponse_Error{w.Error}
	default:
		r.Kind = nil
	}
	return nil
}

// GetRequestKey returns the RequestKey carried by whichever variant is set,
// or nil if the response carries none (shouldn't happen per the wire
// contract, but callers must tolerate it).
func (r *NodeResponse) GetRequestKey() *RequestKey {
	if r == nil {
		return nil
	}
	switch k := r.Kind.(type) {
	case *NodeResponse_NodeContainers:
		if k.NodeContainers != nil {
			return k.NodeContainers.RequestKey
		}
	case *NodeResponse_NodeContainersWithStatus:
		if k.NodeContainersWithStatus != nil {
			return k.NodeContainersWithStatus.RequestKey
		}
	case *NodeResponse_ContainerStatus:
		if k.ContainerStatus != nil {
			return k.ContainerStatus.RequestKey
		}
	case *NodeResponse_ContainerAction:
		if k.ContainerAction != nil {
			return k.ContainerAction.RequestKey
		}
	case *NodeResponse_ContainerLogs:
		if k.ContainerLogs != nil {
			return k.ContainerLogs.RequestKey
		}
	case *NodeResponse_Error:
		if k.Error != nil {
			return k.Error.RequestKey
		}
	}
	return nil
}

type NodeContainers struct {
	Containers []string    `json:"containers"`
	RequestKey *RequestKey `json:"request_key,omitempty"`
}

type ContainerWithStatus struct {
	ContainerID string `json:"container_id"`
	Status      string `json:"status"`
	Created     string `json:"created"`
	StartedAt   string `json:"started_at"`
	FinishedAt  string `json:"finished_at"`
	ExitCode    int32  `json:"exit_code"`
}

type NodeContainersWithStatus struct {
	Containers []ContainerWithStatus `json:"containers"`
	RequestKey *RequestKey           `json:"request_key,omitempty"`
}

type ContainerStatusMsg struct {
	Status     string      `json:"status"`
	Created    string      `json:"created"`
	StartedAt  string      `json:"started_at"`
	FinishedAt string      `json:"finished_at"`
	ExitCode   int32       `json:"exit_code"`
	RequestKey *RequestKey `json:"request_key,omitempty"`
}

type ContainerAction struct {
	ContainerID string      `json:"container_id"`
	Action      string      `json:"action"`
	Message     string      `json:"message"`
	RequestKey  *RequestKey `json:"request_key,omitempty"`
}

type ContainerLogs struct {
	ContainerID string      `json:"container_id"`
	Logs        []string    `json:"logs"`
	RequestKey  *RequestKey `json:"request_key,omitempty"`
}

type NodeError struct {
	Message    string      `json:"message"`
	RequestKey *RequestKey `json:"request_key,omitempty"`
}
