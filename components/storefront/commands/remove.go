package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// RemoveRecordInput identifies the record to delete. Without Confirmed the
// command only opens the confirmation step.
type RemoveRecordInput struct {
	Resource  string `json:"resource"`
	ID        string `json:"id"`
	Confirmed bool   `json:"confirmed"`
}

type removeService interface {
	RequestRemove(id string) error
	ConfirmRemove(ctx context.Context) error
}

// RemoveRecordCommand runs the two-step delete flow of a list.
type RemoveRecordCommand struct {
	service   removeService
	telemetry Telemetry
}

// NewRemoveRecordCommand builds a command instance.
func NewRemoveRecordCommand(service removeService, telemetry Telemetry) *RemoveRecordCommand {
	return &RemoveRecordCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RemoveRecordInput] = (*RemoveRecordCommand)(nil)

// Execute requests and, when confirmed, performs the removal.
func (c *RemoveRecordCommand) Execute(ctx context.Context, msg RemoveRecordInput) error {
	if c.service == nil {
		return errors.New("remove command requires service")
	}
	if msg.ID == "" {
		return errors.New("remove command requires id")
	}
	if err := c.service.RequestRemove(msg.ID); err != nil {
		return err
	}
	if !msg.Confirmed {
		return nil
	}
	if err := c.service.ConfirmRemove(ctx); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "storefront.command.remove", map[string]any{
		"resource": msg.Resource,
		"id":       msg.ID,
	})
	return nil
}
