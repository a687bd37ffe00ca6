package storefront

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/ettle/strcase"
)

// ErrExportInFlight is returned when Run is called while an export is pending.
var ErrExportInFlight = errors.New("storefront: export already in flight")

// ExportParams builds export query params from optional date bounds and
// filters. Only non-empty values are included.
func ExportParams(startDate, endDate string, filters Params) Params {
	out := Params{}
	for key, value := range filters {
		if value != "" {
			out[key] = value
		}
	}
	if startDate != "" {
		out["start_date"] = startDate
	}
	if endDate != "" {
		out["end_date"] = endDate
	}
	return out
}

// ExportFileName returns "{resource}_{YYYY-MM-DD}.xlsx" using the UTC date.
func ExportFileName(resource string, now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", strcase.ToSnake(resource), now.UTC().Format(time.DateOnly))
}

// ExportResult is a downloaded spreadsheet.
type ExportResult struct {
	FileName string
	Data     []byte
	Sheets   []string
	Rows     int
}

// Save writes the spreadsheet into dir and returns its path.
func (r ExportResult) Save(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storefront: create export dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, r.FileName)
	if err := os.WriteFile(path, r.Data, 0o644); err != nil {
		return "", fmt.Errorf("storefront: write export %s: %w", path, err)
	}
	return path, nil
}

// ExportOptions configures an export action.
type ExportOptions struct {
	Resource      string
	Exporter      Exporter
	Clock         Clock
	Telemetry     Telemetry
	Logger        *slog.Logger
	FailedMessage string
}

// ExportAction downloads a resource export. One Run issues one backend call.
type ExportAction struct {
	mu        sync.Mutex
	opts      ExportOptions
	clock     Clock
	telemetry Telemetry
	logger    *slog.Logger
	running   bool
}

// NewExportAction builds an export action.
func NewExportAction(opts ExportOptions) *ExportAction {
	if opts.FailedMessage == "" {
		opts.FailedMessage = "Could not export " + opts.Resource
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	return &ExportAction{
		opts:      opts,
		clock:     clock,
		telemetry: normalizeTelemetry(opts.Telemetry),
		logger:    normalizeLogger(opts.Logger),
	}
}

// Running reports whether an export is in flight.
func (a *ExportAction) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Run fetches the export. Failures are logged and returned as *ActionError
// carrying the display message.
func (a *ExportAction) Run(ctx context.Context, params Params) (ExportResult, error) {
	if a.opts.Exporter == nil {
		return ExportResult{}, ErrNoClient
	}
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ExportResult{}, ErrExportInFlight
	}
	a.running = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.running = false
		a.mu.Unlock()
	}()

	data, err := a.opts.Exporter.Export(ctx, params)
	if err != nil {
		a.logger.ErrorContext(ctx, "export failed",
			slog.String("resource", a.opts.Resource),
			slog.Any("params", params),
			slog.Any("error", err),
		)
		a.telemetry.Record(ctx, "storefront.export", map[string]any{"resource": a.opts.Resource, "ok": false})
		return ExportResult{}, &ActionError{Action: "export " + a.opts.Resource, Message: a.opts.FailedMessage, Err: err}
	}

	result := ExportResult{
		FileName: ExportFileName(a.opts.Resource, a.clock.Now()),
		Data:     data,
	}
	sheets, rows, err := InspectWorkbook(data)
	if err != nil {
		a.logger.WarnContext(ctx, "export is not a readable workbook",
			slog.String("resource", a.opts.Resource),
			slog.Any("error", err),
		)
	} else {
		result.Sheets = sheets
		result.Rows = rows
	}
	a.telemetry.Record(ctx, "storefront.export", map[string]any{
		"resource": a.opts.Resource,
		"ok":       true,
		"bytes":    len(data),
		"rows":     result.Rows,
	})
	return result, nil
}

// InspectWorkbook returns the sheet names of an XLSX buffer and the total
// number of rows across them.
func InspectWorkbook(data []byte) ([]string, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("storefront: open workbook: %w", err)
	}
	sheetMap := f.GetSheetMap()
	indexes := make([]int, 0, len(sheetMap))
	for idx := range sheetMap {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	sheets := make([]string, 0, len(indexes))
	rows := 0
	for _, idx := range indexes {
		name := sheetMap[idx]
		sheetRows, err := f.GetRows(name)
		if err != nil {
			return nil, 0, fmt.Errorf("storefront: read sheet %s: %w", name, err)
		}
		sheets = append(sheets, name)
		rows += len(sheetRows)
	}
	return sheets, rows, nil
}
