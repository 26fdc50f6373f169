package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danghamo/warpgate/internal/api/middleware"
	"github.com/danghamo/warpgate/internal/domain/world"
	"github.com/danghamo/warpgate/pkg/logger"
)

// StreamServer serves a server-sent event stream for a set of topics
type StreamServer interface {
	Serve(w http.ResponseWriter, r *http.Request, clientID string, topics ...string)
}

// StreamHandler streams warp change notifications
type StreamHandler struct {
	stream StreamServer
	logger *logger.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(logger *logger.Logger, stream StreamServer) *StreamHandler {
	return &StreamHandler{
		stream: stream,
		logger: logger.WithComponent("stream-handler"),
	}
}

// HandleWarps handles GET /api/v1/stream/warps?world=<id>. Repeat world to
// watch several worlds; omit it to watch all of them.
func (h *StreamHandler) HandleWarps(w http.ResponseWriter, r *http.Request) {
	var topics []string
	for _, raw := range r.URL.Query()["world"] {
		id := world.ID(raw)
		if err := id.Validate(); err != nil {
			http.Error(w, "invalid world: "+raw, http.StatusBadRequest)
			return
		}
		topics = append(topics, id.String())
	}

	clientID := uuid.NewString()
	if claims, ok := middleware.GetClaims(r.Context()); ok && claims.ActorID != "" {
		clientID = claims.ActorID + "-" + clientID
	}

	h.logger.Debug("Stream client connecting",
		zap.String("client_id", clientID),
		zap.Strings("worlds", topics),
	)
	h.stream.Serve(w, r, clientID, topics...)
}
