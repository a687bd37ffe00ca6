package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	storefront "github.com/goliatone/go-storefront/components/storefront"
)

type stubTelemetry struct {
	events []string
}

func (s *stubTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	s.events = append(s.events, event)
}

type stubToggle struct {
	calls int
	err   error
}

func (s *stubToggle) ToggleFlag(_ context.Context, id, flag string) (storefront.ToggleResult, error) {
	s.calls++
	if s.err != nil {
		return storefront.ToggleResult{}, s.err
	}
	return storefront.ToggleResult{ID: id, Flag: flag, Value: true}, nil
}

type stubRemove struct {
	requested []string
	confirmed int
	err       error
}

func (s *stubRemove) RequestRemove(id string) error {
	s.requested = append(s.requested, id)
	return nil
}

func (s *stubRemove) ConfirmRemove(context.Context) error {
	s.confirmed++
	return s.err
}

type stubForm struct {
	payloads []map[string]any
	err      error
}

func (s *stubForm) Submit(_ context.Context, payload map[string]any) (storefront.Record, error) {
	s.payloads = append(s.payloads, payload)
	if s.err != nil {
		return nil, s.err
	}
	return storefront.Record(payload).With("id", "1"), nil
}

type stubExport struct {
	params storefront.Params
	err    error
}

func (s *stubExport) Run(_ context.Context, params storefront.Params) (storefront.ExportResult, error) {
	s.params = params
	if s.err != nil {
		return storefront.ExportResult{}, s.err
	}
	return storefront.ExportResult{FileName: "productos_2026-10-15.xlsx", Data: []byte("xlsx"), Rows: 4}, nil
}

type stubBanner struct {
	calls int
}

func (s *stubBanner) Dismiss(context.Context) (storefront.BannerView, error) {
	s.calls++
	return storefront.BannerView{State: storefront.BannerHidden, Reason: storefront.HideUserDismissed}, nil
}

func TestToggleFlagCommand(t *testing.T) {
	service := &stubToggle{}
	telemetry := &stubTelemetry{}
	cmd := NewToggleFlagCommand(service, telemetry)
	if err := cmd.Execute(context.Background(), ToggleFlagInput{Resource: "admin/productos", ID: "3", Flag: "activo"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.calls != 1 {
		t.Fatalf("expected toggle call")
	}
	if len(telemetry.events) != 1 || telemetry.events[0] != "storefront.command.toggle" {
		t.Fatalf("unexpected telemetry %v", telemetry.events)
	}
	if err := cmd.Execute(context.Background(), ToggleFlagInput{ID: "3"}); err == nil {
		t.Fatalf("expected error for missing flag")
	}
}

func TestToggleFlagCommandPropagatesRollback(t *testing.T) {
	boom := errors.New("boom")
	telemetry := &stubTelemetry{}
	cmd := NewToggleFlagCommand(&stubToggle{err: boom}, telemetry)
	if err := cmd.Execute(context.Background(), ToggleFlagInput{ID: "3", Flag: "activo"}); !errors.Is(err, boom) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if len(telemetry.events) != 0 {
		t.Fatalf("expected no telemetry on failure")
	}
}

func TestRemoveRecordCommand(t *testing.T) {
	service := &stubRemove{}
	cmd := NewRemoveRecordCommand(service, nil)
	if err := cmd.Execute(context.Background(), RemoveRecordInput{ID: "9"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.confirmed != 0 {
		t.Fatalf("unconfirmed removal must not reach the backend")
	}
	if err := cmd.Execute(context.Background(), RemoveRecordInput{ID: "9", Confirmed: true}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.confirmed != 1 || len(service.requested) != 2 {
		t.Fatalf("unexpected calls: %+v", service)
	}
	if err := cmd.Execute(context.Background(), RemoveRecordInput{}); err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestSaveRecordCommand(t *testing.T) {
	service := &stubForm{}
	var saved storefront.Record
	cmd := NewSaveRecordCommand(service, nil)
	err := cmd.Execute(context.Background(), SaveRecordInput{
		Resource: "admin/categorias",
		Payload:  map[string]any{"nombre": "Bebidas"},
		Saved:    &saved,
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if saved.String("id") != "1" {
		t.Fatalf("expected saved record, got %v", saved)
	}

	service.err = errors.New("invalid")
	if err := cmd.Execute(context.Background(), SaveRecordInput{Payload: map[string]any{}}); err == nil {
		t.Fatalf("expected submit error")
	}
}

func TestExportCommandSavesFile(t *testing.T) {
	service := &stubExport{}
	dir := t.TempDir()
	var out ExportOutput
	cmd := NewExportCommand(service, &stubTelemetry{})
	err := cmd.Execute(context.Background(), ExportInput{
		Resource:  "productos",
		StartDate: "2026-10-01",
		Dir:       dir,
		Result:    &out,
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.params["start_date"] != "2026-10-01" {
		t.Fatalf("expected start_date param, got %v", service.params)
	}
	if _, ok := service.params["end_date"]; ok {
		t.Fatalf("empty end_date must be omitted")
	}
	if out.Path != filepath.Join(dir, "productos_2026-10-15.xlsx") {
		t.Fatalf("unexpected path %s", out.Path)
	}
	data, err := os.ReadFile(out.Path)
	if err != nil || string(data) != "xlsx" {
		t.Fatalf("expected file contents, got %q (%v)", data, err)
	}
}

func TestExportCommandFailure(t *testing.T) {
	cmd := NewExportCommand(&stubExport{err: errors.New("timeout")}, nil)
	if err := cmd.Execute(context.Background(), ExportInput{Dir: t.TempDir()}); err == nil {
		t.Fatalf("expected export error")
	}
}

func TestDismissBannerCommand(t *testing.T) {
	service := &stubBanner{}
	telemetry := &stubTelemetry{}
	cmd := NewDismissBannerCommand(service, telemetry)
	if err := cmd.Execute(context.Background(), DismissBannerInput{}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.calls != 1 || len(telemetry.events) != 1 {
		t.Fatalf("expected dismiss call and telemetry")
	}
	if err := NewDismissBannerCommand(nil, nil).Execute(context.Background(), DismissBannerInput{}); err == nil {
		t.Fatalf("expected error without service")
	}
}
