package storefront

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogTelemetryWritesSortedAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	LogTelemetry{Logger: logger, Level: slog.LevelDebug}.Record(context.Background(), "storefront.export", map[string]any{
		"rows":     3,
		"resource": "productos",
	})
	out := buf.String()
	assert.Contains(t, out, "msg=storefront.export")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("resource=")), bytes.Index(buf.Bytes(), []byte("rows=")))
}

func TestLogTelemetrySkipsDisabledLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	LogTelemetry{Logger: logger, Level: slog.LevelDebug}.Record(context.Background(), "storefront.list.toggle", nil)
	assert.Empty(t, buf.String())
}

func TestNopTelemetry(t *testing.T) {
	assert.NotPanics(t, func() {
		NopTelemetry().Record(context.Background(), "x", nil)
		normalizeTelemetry(nil).Record(context.Background(), "x", nil)
	})
}
