package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	storefront "github.com/goliatone/go-storefront/components/storefront"
)

// ExportInput selects the export window and where to write the file.
type ExportInput struct {
	Resource  string            `json:"resource"`
	StartDate string            `json:"start_date"`
	EndDate   string            `json:"end_date"`
	Filters   storefront.Params `json:"filters"`
	Dir       string            `json:"dir"`
	// Result receives the download and the saved path when non-nil.
	Result *ExportOutput `json:"-"`
}

// ExportOutput reports a finished export.
type ExportOutput struct {
	storefront.ExportResult
	Path string
}

type exportService interface {
	Run(ctx context.Context, params storefront.Params) (storefront.ExportResult, error)
}

// ExportCommand downloads a spreadsheet export and saves it to disk.
type ExportCommand struct {
	service   exportService
	telemetry Telemetry
}

// NewExportCommand creates the command.
func NewExportCommand(service exportService, telemetry Telemetry) *ExportCommand {
	return &ExportCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ExportInput] = (*ExportCommand)(nil)

// Execute runs the export and writes the file into msg.Dir.
func (c *ExportCommand) Execute(ctx context.Context, msg ExportInput) error {
	if c.service == nil {
		return errors.New("export command requires service")
	}
	result, err := c.service.Run(ctx, storefront.ExportParams(msg.StartDate, msg.EndDate, msg.Filters))
	if err != nil {
		return err
	}
	path, err := result.Save(msg.Dir)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = ExportOutput{ExportResult: result, Path: path}
	}
	c.telemetry.Record(ctx, "storefront.command.export", map[string]any{
		"resource": msg.Resource,
		"file":     result.FileName,
		"rows":     result.Rows,
	})
	return nil
}
