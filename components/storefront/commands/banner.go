package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	storefront "github.com/goliatone/go-storefront/components/storefront"
)

// DismissBannerInput is empty; the lifecycle knows which banner is showing.
type DismissBannerInput struct{}

type bannerService interface {
	Dismiss(ctx context.Context) (storefront.BannerView, error)
}

// DismissBannerCommand hides the visible banner for good.
type DismissBannerCommand struct {
	service   bannerService
	telemetry Telemetry
}

// NewDismissBannerCommand creates the command.
func NewDismissBannerCommand(service bannerService, telemetry Telemetry) *DismissBannerCommand {
	return &DismissBannerCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DismissBannerInput] = (*DismissBannerCommand)(nil)

// Execute dismisses the banner.
func (c *DismissBannerCommand) Execute(ctx context.Context, _ DismissBannerInput) error {
	if c.service == nil {
		return errors.New("dismiss banner command requires service")
	}
	view, err := c.service.Dismiss(ctx)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "storefront.command.banner_dismiss", map[string]any{
		"state":  view.State.String(),
		"reason": string(view.Reason),
	})
	return nil
}
