package storefront

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exporterFunc func(ctx context.Context, params Params) ([]byte, error)

func (f exporterFunc) Export(ctx context.Context, params Params) ([]byte, error) {
	return f(ctx, params)
}

func workbook(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestExportParams(t *testing.T) {
	params := ExportParams("2026-10-01", "", Params{"estado": "pagado", "tipo": ""})
	assert.Equal(t, Params{"estado": "pagado", "start_date": "2026-10-01"}, params)
}

func TestExportFileName(t *testing.T) {
	at := time.Date(2026, 10, 15, 23, 30, 0, 0, time.FixedZone("CST", -6*3600))
	assert.Equal(t, "metodos_pago_2026-10-16.xlsx", ExportFileName("metodos-pago", at))
	assert.Equal(t, "productos_2026-10-16.xlsx", ExportFileName("productos", at))
}

func TestExportActionDownloadsWorkbook(t *testing.T) {
	data := workbook(t, [][]string{{"id", "nombre"}, {"1", "Café"}, {"2", "Té"}})
	var got Params
	telemetry := &eventRecorder{}
	action := NewExportAction(ExportOptions{
		Resource: "productos",
		Exporter: exporterFunc(func(_ context.Context, params Params) ([]byte, error) {
			got = params
			return data, nil
		}),
		Clock:     ClockFunc(func() time.Time { return lifecycleNow }),
		Telemetry: telemetry,
	})

	result, err := action.Run(context.Background(), Params{"start_date": "2026-10-01"})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-01", got["start_date"])
	assert.Equal(t, "productos_2026-10-15.xlsx", result.FileName)
	assert.Equal(t, []string{"Sheet1"}, result.Sheets)
	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, []string{"storefront.export"}, telemetry.events)

	path, err := result.Save(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, written)
}

func TestExportActionFailureCarriesMessage(t *testing.T) {
	action := NewExportAction(ExportOptions{
		Resource: "transacciones",
		Exporter: exporterFunc(func(context.Context, Params) ([]byte, error) {
			return nil, errors.New("timeout")
		}),
	})

	_, err := action.Run(context.Background(), nil)
	var aerr *ActionError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, "Could not export transacciones", MessageFor(err, ""))
	assert.False(t, action.Running())
}

func TestExportActionKeepsUnreadablePayload(t *testing.T) {
	action := NewExportAction(ExportOptions{
		Resource: "productos",
		Exporter: exporterFunc(func(context.Context, Params) ([]byte, error) {
			return []byte("not a workbook"), nil
		}),
	})
	result, err := action.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("not a workbook"), result.Data)
	assert.Empty(t, result.Sheets)
}

func TestExportActionRejectsConcurrentRun(t *testing.T) {
	gate := make(chan struct{})
	action := NewExportAction(ExportOptions{
		Resource: "productos",
		Exporter: exporterFunc(func(context.Context, Params) ([]byte, error) {
			<-gate
			return nil, errors.New("cancelled")
		}),
	})
	done := make(chan error, 1)
	go func() {
		_, err := action.Run(context.Background(), nil)
		done <- err
	}()
	require.Eventually(t, action.Running, time.Second, time.Millisecond)
	_, err := action.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrExportInFlight)
	close(gate)
	assert.Error(t, <-done)
}

func TestExportActionWithoutExporter(t *testing.T) {
	_, err := NewExportAction(ExportOptions{}).Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoClient)
}
