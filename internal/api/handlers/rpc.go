package handlers

import (
	"context"
	"net/http"

	"github.com/danghamo/warpgate/internal/api/jsonrpcx"
	"github.com/danghamo/warpgate/internal/api/middleware"
	"github.com/danghamo/warpgate/internal/domain/actor"
	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/world"
)

// parseRequest reads a JSON-RPC request and, when params is non-nil, its
// params. On failure the error is attached to r and ok is false.
func parseRequest(w http.ResponseWriter, r *http.Request, params any) (*jsonrpcx.JSONRPCRequest, bool) {
	req, err := jsonrpcx.ParseRequest(r)
	if err != nil {
		jsonrpcx.WithError(w, r, nil, jsonrpcx.ParseError, "Invalid JSON-RPC request")
		return nil, false
	}

	if params != nil {
		if err := jsonrpcx.DecodeParams(req, params); err != nil {
			jsonrpcx.WithError(w, r, req.ID, jsonrpcx.InvalidParams, "Invalid params")
			return nil, false
		}
	}

	return req, true
}

// ActorParams is the host's snapshot of the actor a call is made for
type ActorParams struct {
	ID       string           `json:"id"`
	Name     string           `json:"name,omitempty"`
	World    world.ID         `json:"world,omitempty"`
	Position *shared.BlockPos `json:"position,omitempty"`
	Tags     []string         `json:"tags,omitempty"`
}

// ActorTracker stores the latest actor snapshots
type ActorTracker interface {
	Update(a actor.Actor) error
	Get(actorID string) (actor.Actor, bool)
}

// bindActor records the snapshot carried by a call and returns the actor it
// names. Host tokens may speak for any actor and supply its tags; any other
// token speaks only for its own actor, with the tags it was issued.
// A snapshot without a world reuses the last one recorded.
func bindActor(ctx context.Context, tracker ActorTracker, p *ActorParams) (actor.Actor, error) {
	claims, ok := middleware.GetClaims(ctx)
	if !ok {
		return actor.Actor{}, shared.ErrPermissionDenied("act without credentials")
	}
	if p == nil {
		p = &ActorParams{}
	}

	id := p.ID
	if !claims.IsHost() {
		if id != "" && id != claims.ActorID {
			return actor.Actor{}, shared.ErrPermissionDenied("act for another actor")
		}
		id = claims.ActorID
	}
	if id == "" {
		return actor.Actor{}, shared.ErrInvalidInput("actor id is required")
	}

	previous, known := tracker.Get(id)
	if p.World == "" {
		if !known {
			return actor.Actor{}, shared.ErrActorNotFound(id)
		}
		return previous, nil
	}
	if err := p.World.Validate(); err != nil {
		return actor.Actor{}, err
	}

	a := actor.Actor{
		ID:    id,
		Name:  p.Name,
		World: p.World,
		Tags:  p.Tags,
	}
	switch {
	case p.Position != nil:
		a.Position = *p.Position
	case known && previous.World == p.World:
		a.Position = previous.Position
	}
	if !claims.IsHost() {
		a.Tags = claims.Tags
		if a.Name == "" {
			a.Name = claims.Name
		}
	}

	if err := tracker.Update(a); err != nil {
		return actor.Actor{}, err
	}
	return a, nil
}
