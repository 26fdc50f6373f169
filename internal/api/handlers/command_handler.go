package handlers

import (
	"context"
	"net/http"

	"github.com/danghamo/warpgate/internal/api/jsonrpcx"
	"github.com/danghamo/warpgate/internal/app/console"
	"github.com/danghamo/warpgate/pkg/logger"
)

// Console runs typed command lines
type Console interface {
	Execute(ctx context.Context, actorID, line string) console.Reply
	Complete(ctx context.Context, actorID, line string) []string
}

// CommandHandler forwards chat command lines typed in game
type CommandHandler struct {
	console Console
	tracker ActorTracker
	logger  *logger.Logger
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(logger *logger.Logger, console Console, tracker ActorTracker) *CommandHandler {
	return &CommandHandler{
		console: console,
		tracker: tracker,
		logger:  logger.WithComponent("command-handler"),
	}
}

type CommandLineParams struct {
	Actor *ActorParams `json:"actor"`
	Line  string       `json:"line"`
}

type CompleteResult struct {
	Suggestions []string `json:"suggestions"`
}

// Execute handles POST /api/v1/command.Execute
func (h *CommandHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var params CommandLineParams
	req, ok := parseRequest(w, r, &params)
	if !ok {
		return
	}

	a, err := bindActor(r.Context(), h.tracker, params.Actor)
	if err != nil {
		jsonrpcx.WithDomainError(w, r, req.ID, err)
		return
	}

	jsonrpcx.Success(w, req.ID, h.console.Execute(r.Context(), a.ID, params.Line))
}

// Complete handles POST /api/v1/command.Complete
func (h *CommandHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var params CommandLineParams
	req, ok := parseRequest(w, r, &params)
	if !ok {
		return
	}

	a, err := bindActor(r.Context(), h.tracker, params.Actor)
	if err != nil {
		jsonrpcx.WithDomainError(w, r, req.ID, err)
		return
	}

	suggestions := h.console.Complete(r.Context(), a.ID, params.Line)
	if suggestions == nil {
		suggestions = []string{}
	}
	jsonrpcx.Success(w, req.ID, CompleteResult{Suggestions: suggestions})
}
