package api

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/google/uuid"

	storefront "github.com/goliatone/go-storefront/components/storefront"
)

// MockResource is an in-memory ResourceClient for demos and tests. Failures
// can be injected per operation.
type MockResource struct {
	mu      sync.RWMutex
	idField string
	order   []string
	records map[string]storefront.Record

	// Fail maps an operation name ("list", "retrieve", "create", "update",
	// "patch", "remove", "export") to the error it should return.
	Fail map[string]error
	// Calls counts invocations per operation name.
	Calls map[string]int
}

var (
	_ storefront.ResourceClient = (*MockResource)(nil)
	_ storefront.Exporter       = (*MockResource)(nil)
)

// NewMockResource seeds a mock with records identified by idField.
func NewMockResource(idField string, seed ...storefront.Record) *MockResource {
	if idField == "" {
		idField = "id"
	}
	m := &MockResource{
		idField: idField,
		records: map[string]storefront.Record{},
		Fail:    map[string]error{},
		Calls:   map[string]int{},
	}
	for _, rec := range seed {
		id, ok := rec.ID(idField)
		if !ok {
			id = uuid.NewString()
			rec = rec.With(idField, id)
		}
		m.order = append(m.order, id)
		m.records[id] = rec.Clone()
	}
	return m
}

func (m *MockResource) begin(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls[op]++
	return m.Fail[op]
}

// SetFailure makes op fail with err until cleared with a nil err.
func (m *MockResource) SetFailure(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.Fail, op)
		return
	}
	m.Fail[op] = err
}

// CallCount returns how many times op ran.
func (m *MockResource) CallCount(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Calls[op]
}

// List returns records in insertion order. Params matching record fields
// filter the result.
func (m *MockResource) List(_ context.Context, params storefront.Params) (storefront.Collection, error) {
	if err := m.begin("list"); err != nil {
		return storefront.Collection{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := make([]storefront.Record, 0, len(m.order))
	for _, id := range m.order {
		rec := m.records[id]
		if matches(rec, params) {
			items = append(items, rec.Clone())
		}
	}
	return storefront.NewCollection(items), nil
}

func matches(rec storefront.Record, params storefront.Params) bool {
	for key, value := range params {
		if value == "" {
			continue
		}
		if _, ok := rec[key]; !ok {
			continue
		}
		if rec.String(key) != value {
			return false
		}
	}
	return true
}

// Retrieve returns one record.
func (m *MockResource) Retrieve(_ context.Context, id string) (storefront.Record, error) {
	if err := m.begin("retrieve"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, notFound(id)
	}
	return rec.Clone(), nil
}

// Create stores payload, assigning an id when missing.
func (m *MockResource) Create(_ context.Context, payload any) (storefront.Record, error) {
	if err := m.begin("create"); err != nil {
		return nil, err
	}
	rec, err := toRecord(payload)
	if err != nil {
		return nil, err
	}
	id, ok := rec.ID(m.idField)
	if !ok {
		id = uuid.NewString()
		rec = rec.With(m.idField, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[id]; !exists {
		m.order = append(m.order, id)
	}
	m.records[id] = rec
	return rec.Clone(), nil
}

// Update replaces a record.
func (m *MockResource) Update(_ context.Context, id string, payload any) (storefront.Record, error) {
	if err := m.begin("update"); err != nil {
		return nil, err
	}
	rec, err := toRecord(payload)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return nil, notFound(id)
	}
	rec = rec.With(m.idField, id)
	m.records[id] = rec
	return rec.Clone(), nil
}

// PartialUpdate merges patch into a record.
func (m *MockResource) PartialUpdate(_ context.Context, id string, patch map[string]any) (storefront.Record, error) {
	if err := m.begin("patch"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, notFound(id)
	}
	rec = rec.Clone()
	for key, value := range patch {
		rec[key] = value
	}
	m.records[id] = rec
	return rec.Clone(), nil
}

// Remove deletes a record.
func (m *MockResource) Remove(_ context.Context, id string) error {
	if err := m.begin("remove"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return notFound(id)
	}
	delete(m.records, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Export renders the current records as a one-sheet workbook.
func (m *MockResource) Export(ctx context.Context, params storefront.Params) ([]byte, error) {
	if err := m.begin("export"); err != nil {
		return nil, err
	}
	m.mu.RLock()
	var items []storefront.Record
	for _, id := range m.order {
		if rec := m.records[id]; matches(rec, params) {
			items = append(items, rec.Clone())
		}
	}
	m.mu.RUnlock()
	return BuildWorkbook("Sheet1", items)
}

// BuildWorkbook writes records as rows under a header of their sorted keys.
func BuildWorkbook(sheet string, items []storefront.Record) ([]byte, error) {
	keySet := map[string]struct{}{}
	for _, rec := range items {
		for key := range rec {
			keySet[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	f := excelize.NewFile()
	if sheet != "Sheet1" {
		f.SetSheetName("Sheet1", sheet)
	}
	for col, key := range keys {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("api: header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, key); err != nil {
			return nil, fmt.Errorf("api: write header: %w", err)
		}
	}
	for row, rec := range items {
		for col, key := range keys {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("api: data cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, rec.String(key)); err != nil {
				return nil, fmt.Errorf("api: write row: %w", err)
			}
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("api: encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func toRecord(payload any) (storefront.Record, error) {
	switch p := payload.(type) {
	case storefront.Record:
		return p.Clone(), nil
	case map[string]any:
		return storefront.Record(p).Clone(), nil
	case nil:
		return storefront.Record{}, nil
	}
	return nil, fmt.Errorf("api: mock resource cannot store %T", payload)
}

func notFound(id string) *Error {
	return &Error{Status: 404, Message: "No encontrado: " + id, Body: []byte(`{"detail":"No encontrado."}`)}
}

// StaticBanner is a BannerSource returning a fixed banner.
type StaticBanner struct {
	Banner *storefront.Banner
	Err    error
}

// LatestBanner implements storefront.BannerSource.
func (s StaticBanner) LatestBanner(context.Context) (*storefront.Banner, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Banner == nil {
		return nil, nil
	}
	copied := *s.Banner
	return &copied, nil
}
