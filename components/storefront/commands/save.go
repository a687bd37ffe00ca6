package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	storefront "github.com/goliatone/go-storefront/components/storefront"
)

// SaveRecordInput carries a create or update payload.
type SaveRecordInput struct {
	Resource string         `json:"resource"`
	Payload  map[string]any `json:"payload"`
	// Saved receives the stored record when non-nil.
	Saved *storefront.Record `json:"-"`
}

type formService interface {
	Submit(ctx context.Context, payload map[string]any) (storefront.Record, error)
}

// SaveRecordCommand submits a record form.
type SaveRecordCommand struct {
	service   formService
	telemetry Telemetry
}

// NewSaveRecordCommand creates the command.
func NewSaveRecordCommand(service formService, telemetry Telemetry) *SaveRecordCommand {
	return &SaveRecordCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveRecordInput] = (*SaveRecordCommand)(nil)

// Execute validates and saves the payload.
func (c *SaveRecordCommand) Execute(ctx context.Context, msg SaveRecordInput) error {
	if c.service == nil {
		return errors.New("save command requires service")
	}
	record, err := c.service.Submit(ctx, msg.Payload)
	if err != nil {
		return err
	}
	if msg.Saved != nil {
		*msg.Saved = record
	}
	c.telemetry.Record(ctx, "storefront.command.save", map[string]any{
		"resource": msg.Resource,
		"fields":   len(msg.Payload),
	})
	return nil
}
