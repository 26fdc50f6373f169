package console

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/danghamo/warpgate/internal/app/command"
	"github.com/danghamo/warpgate/internal/app/query"
	"github.com/danghamo/warpgate/internal/domain/shared"
	"github.com/danghamo/warpgate/internal/domain/warp"
	"github.com/danghamo/warpgate/internal/domain/world"
	"github.com/danghamo/warpgate/pkg/logger"
)

// Command names
const (
	CmdWarp       = "warp"
	CmdSetWarp    = "setwarp"
	CmdRemoveWarp = "removewarp"
)

// Reply is the feedback shown to the actor who typed a command
type Reply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Warning string `json:"warning,omitempty"`
}

func success(format string, args ...interface{}) Reply {
	return Reply{Success: true, Message: fmt.Sprintf(format, args...)}
}

func failure(format string, args ...interface{}) Reply {
	return Reply{Success: false, Message: fmt.Sprintf(format, args...)}
}

// Dispatcher runs chat-style command lines against the warp handlers
type Dispatcher struct {
	commands command.CommandHandler
	queries  query.QueryHandler
	logger   *logger.Logger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(commands command.CommandHandler, queries query.QueryHandler, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Dispatcher{
		commands: commands,
		queries:  queries,
		logger:   log.WithComponent("console"),
	}
}

// split returns the lowercased command name and the rest of the line,
// which is taken whole as the argument
func split(line string) (string, string) {
	line = strings.TrimPrefix(strings.TrimSpace(line), "/")
	name, rest, _ := strings.Cut(line, " ")
	return world.Lower(name), strings.TrimSpace(rest)
}

// Execute runs one command line for the actor
func (d *Dispatcher) Execute(ctx context.Context, actorID, line string) Reply {
	name, arg := split(line)

	switch name {
	case CmdWarp:
		if arg == "" {
			return d.listWarps(ctx, actorID)
		}
		return d.teleport(ctx, actorID, arg)
	case CmdSetWarp:
		if arg == "" {
			return failure("Usage: /setwarp <name>")
		}
		return d.setWarp(ctx, actorID, arg)
	case CmdRemoveWarp:
		if arg == "" {
			return failure("Usage: /removewarp <name>")
		}
		return d.removeWarp(ctx, actorID, arg)
	case "":
		return failure("Empty command.")
	default:
		return failure("Unknown command: %s", name)
	}
}

// Complete returns argument suggestions for a partially typed line
func (d *Dispatcher) Complete(ctx context.Context, actorID, line string) []string {
	name, arg := split(line)

	var target string
	switch name {
	case CmdWarp:
		target = query.SuggestForWarp
	case CmdRemoveWarp:
		target = query.SuggestForRemove
	default:
		return nil
	}

	out, err := d.queries.Handle(ctx, query.NewSuggestWarpsQuery(actorID, target, arg))
	if err != nil {
		return nil
	}
	result, ok := out.(query.SuggestWarpsResult)
	if !ok {
		return nil
	}
	return result.Suggestions
}

func (d *Dispatcher) listWarps(ctx context.Context, actorID string) Reply {
	out, err := d.queries.Handle(ctx, query.NewListWarpsQuery(actorID))
	if err != nil {
		return d.fail(actorID, CmdWarp, err)
	}
	result, ok := out.(query.ListWarpsResult)
	if !ok {
		return d.unexpected(actorID, CmdWarp, out)
	}
	return success("Available warps: %s", strings.Join(result.Names, ", "))
}

func (d *Dispatcher) teleport(ctx context.Context, actorID, destination string) Reply {
	out, err := d.commands.Handle(ctx, command.NewTeleportCommand(actorID, destination))
	if err != nil {
		if shared.HasCode(err, shared.ErrCodeDestinationNotFound) {
			return failure("Warp or dimension not found: %s", world.Lower(strings.TrimSpace(destination)))
		}
		return d.fail(actorID, CmdWarp, err)
	}
	result, ok := out.(command.TeleportResult)
	if !ok {
		return d.unexpected(actorID, CmdWarp, out)
	}

	if result.Kind == warp.KindWarp {
		return success("Teleported to warp: %s", result.Destination)
	}
	return success("Teleported to dimension: %s", result.Label())
}

func (d *Dispatcher) setWarp(ctx context.Context, actorID, name string) Reply {
	out, err := d.commands.Handle(ctx, command.NewSetWarpCommand(actorID, name))
	if err != nil {
		if shared.HasCode(err, shared.ErrCodePermissionDenied) {
			return failure("You must be a staff member to set a warp.")
		}
		return d.fail(actorID, CmdSetWarp, err)
	}
	result, ok := out.(command.SetWarpResult)
	if !ok {
		return d.unexpected(actorID, CmdSetWarp, out)
	}

	reply := success("Warp set at: %s", result.Point)
	reply.Warning = result.Warning
	return reply
}

func (d *Dispatcher) removeWarp(ctx context.Context, actorID, name string) Reply {
	out, err := d.commands.Handle(ctx, command.NewRemoveWarpCommand(actorID, name))
	if err != nil {
		switch {
		case shared.HasCode(err, shared.ErrCodePermissionDenied):
			return failure("You must be a staff member to remove a warp.")
		case shared.HasCode(err, shared.ErrCodeNotFound):
			return failure("Warp '%s' does not exist.", warp.NormalizeName(name))
		}
		return d.fail(actorID, CmdRemoveWarp, err)
	}
	result, ok := out.(command.RemoveWarpResult)
	if !ok {
		return d.unexpected(actorID, CmdRemoveWarp, out)
	}

	reply := success("Removed warp: %s", result.Name)
	reply.Warning = result.Warning
	return reply
}

// fail turns the errors every command shares into a reply
func (d *Dispatcher) fail(actorID, name string, err error) Reply {
	switch shared.ErrorCode(err) {
	case shared.ErrCodeActorNotFound:
		return failure("Player not found.")
	case shared.ErrCodeInvalidInput:
		return failure("Invalid input: %v", err)
	}

	d.logger.WithActor(actorID).Error("Command failed",
		zap.String("command", name),
		zap.Error(err),
	)
	return failure("An error occurred while running /%s.", name)
}

func (d *Dispatcher) unexpected(actorID, name string, out interface{}) Reply {
	return d.fail(actorID, name, fmt.Errorf("unexpected result type %T", out))
}
