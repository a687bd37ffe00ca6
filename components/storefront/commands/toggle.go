package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	storefront "github.com/goliatone/go-storefront/components/storefront"
)

// ToggleFlagInput identifies the record and boolean flag to flip.
type ToggleFlagInput struct {
	Resource string `json:"resource"`
	ID       string `json:"id"`
	Flag     string `json:"flag"`
}

type toggleService interface {
	ToggleFlag(ctx context.Context, id, flag string) (storefront.ToggleResult, error)
}

// ToggleFlagCommand flips a flag on a list row optimistically.
type ToggleFlagCommand struct {
	service   toggleService
	telemetry Telemetry
}

// NewToggleFlagCommand creates the command.
func NewToggleFlagCommand(service toggleService, telemetry Telemetry) *ToggleFlagCommand {
	return &ToggleFlagCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleFlagInput] = (*ToggleFlagCommand)(nil)

// Execute toggles the flag. A rolled back toggle returns the backend error.
func (c *ToggleFlagCommand) Execute(ctx context.Context, msg ToggleFlagInput) error {
	if c.service == nil {
		return errors.New("toggle command requires service")
	}
	if msg.ID == "" || msg.Flag == "" {
		return errors.New("toggle command requires id and flag")
	}
	result, err := c.service.ToggleFlag(ctx, msg.ID, msg.Flag)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "storefront.command.toggle", map[string]any{
		"resource": msg.Resource,
		"id":       msg.ID,
		"flag":     msg.Flag,
		"value":    result.Value,
	})
	return nil
}
