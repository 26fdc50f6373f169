package handlers

import (
	"net/http"

	"github.com/danghamo/warpgate/internal/api/jsonrpcx"
	"github.com/danghamo/warpgate/internal/domain/world"
)

// ServerInfo describes the running service
type ServerInfo struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	Environment   string `json:"environment"`
	Namespace     string `json:"namespace"`
	StorageDriver string `json:"storage_driver"`
	EventsDriver  string `json:"events_driver"`
}

// ServerStatus reads live counters for server.Info. Nil funcs report zero.
type ServerStatus struct {
	Worlds        func() []world.ID
	OnlineActors  func() int
	StreamClients func() int
}

// ServerInfoResponse represents server information
type ServerInfoResponse struct {
	ServerInfo
	LoadedWorlds  []world.ID `json:"loaded_worlds"`
	OnlineActors  int        `json:"online_actors"`
	StreamClients int        `json:"stream_clients"`
}

// ServerHandler handles server information requests
type ServerHandler struct {
	info   ServerInfo
	status ServerStatus
}

// NewServerHandler creates a new server handler
func NewServerHandler(info ServerInfo, status ServerStatus) *ServerHandler {
	return &ServerHandler{info: info, status: status}
}

// Info handles POST /api/v1/server.Info
func (h *ServerHandler) Info(w http.ResponseWriter, r *http.Request) {
	req, ok := parseRequest(w, r, nil)
	if !ok {
		return
	}

	response := ServerInfoResponse{ServerInfo: h.info, LoadedWorlds: []world.ID{}}
	if h.status.Worlds != nil {
		response.LoadedWorlds = append(response.LoadedWorlds, h.status.Worlds()...)
	}
	if h.status.OnlineActors != nil {
		response.OnlineActors = h.status.OnlineActors()
	}
	if h.status.StreamClients != nil {
		response.StreamClients = h.status.StreamClients()
	}

	jsonrpcx.Success(w, req.ID, response)
}
