package command

import (
	"context"
	"time"

	"github.com/danghamo/warpgate/internal/domain/shared"
)

// Command represents a command in CQRS pattern
type Command interface {
	CommandID() string
	CommandType() string
	ActorID() string
	CreatedAt() time.Time
}

// BaseCommand provides common command functionality
type BaseCommand struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Actor     string    `json:"actor_id"`
	Timestamp time.Time `json:"created_at"`
}

// CommandID returns the command ID
func (c BaseCommand) CommandID() string {
	return c.ID
}

// CommandType returns the command type
func (c BaseCommand) CommandType() string {
	return c.Type
}

// ActorID returns the actor issuing the command
func (c BaseCommand) ActorID() string {
	return c.Actor
}

// CreatedAt returns when the command was created
func (c BaseCommand) CreatedAt() time.Time {
	return c.Timestamp
}

// NewBaseCommand creates a new base command
func NewBaseCommand(commandType, actorID string) BaseCommand {
	return BaseCommand{
		ID:        shared.NewID().String(),
		Type:      commandType,
		Actor:     actorID,
		Timestamp: time.Now(),
	}
}

// CommandHandler handles commands
type CommandHandler interface {
	Handle(ctx context.Context, cmd Command) (interface{}, error)
}
