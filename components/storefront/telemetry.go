package storefront

import (
	"context"
	"log/slog"
	"sort"
)

// Telemetry records storefront events (settled mutations, banner transitions)
// for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// TelemetryFunc adapts a function into a Telemetry.
type TelemetryFunc func(ctx context.Context, event string, payload map[string]any)

// Record implements Telemetry.
func (f TelemetryFunc) Record(ctx context.Context, event string, payload map[string]any) {
	if f != nil {
		f(ctx, event, payload)
	}
}

// LogTelemetry writes events as log records at a fixed level.
type LogTelemetry struct {
	Logger *slog.Logger
	Level  slog.Level
}

// Record implements Telemetry. Payload keys are logged in sorted order.
func (t LogTelemetry) Record(ctx context.Context, event string, payload map[string]any) {
	logger := normalizeLogger(t.Logger)
	if !logger.Enabled(ctx, t.Level) {
		return
	}
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	attrs := make([]slog.Attr, 0, len(keys))
	for _, key := range keys {
		attrs = append(attrs, slog.Any(key, payload[key]))
	}
	logger.LogAttrs(ctx, t.Level, event, attrs...)
}

// NopTelemetry discards every event.
func NopTelemetry() Telemetry { return TelemetryFunc(nil) }

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return NopTelemetry()
	}
	return t
}
