package storefront

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// DefaultPageSize matches the page size admin lists start with.
const DefaultPageSize = 10

// ErrRemovalInFlight is returned when ConfirmRemove is called while the
// confirmed removal is still waiting on the backend.
var ErrRemovalInFlight = errors.New("storefront: removal already in flight")

// ListMessages holds the generic, user-facing fallback texts. Backend
// messages take precedence whenever the error carries one.
type ListMessages struct {
	LoadFailed      string
	ToggleFailed    string
	ToggleSucceeded string
	RemoveFailed    string
	Removed         string
}

func (m ListMessages) withDefaults() ListMessages {
	if m.LoadFailed == "" {
		m.LoadFailed = "Could not load records"
	}
	if m.ToggleFailed == "" {
		m.ToggleFailed = "Could not update record"
	}
	if m.ToggleSucceeded == "" {
		m.ToggleSucceeded = "Record updated"
	}
	if m.RemoveFailed == "" {
		m.RemoveFailed = "Could not delete record"
	}
	if m.Removed == "" {
		m.Removed = "Record deleted"
	}
	return m
}

// ListOptions configures a paginated list.
type ListOptions struct {
	Resource  string
	IDField   string
	PageSize  int
	Params    Params
	Client    ResourceClient
	Notifier  Notifier
	Telemetry Telemetry
	Messages  ListMessages
	Logger    *slog.Logger
}

// ToggleState tracks the optimistic toggle lifecycle of a record.
type ToggleState int

const (
	ToggleIdle ToggleState = iota
	TogglePending
	ToggleConfirmed
	ToggleRolledBack
)

func (s ToggleState) String() string {
	switch s {
	case TogglePending:
		return "pending"
	case ToggleConfirmed:
		return "confirmed"
	case ToggleRolledBack:
		return "rolled_back"
	default:
		return "idle"
	}
}

// ToggleResult reports how a toggle settled and the flag value left displayed.
type ToggleResult struct {
	ID    string
	Flag  string
	Value bool
	State ToggleState
}

// ListSnapshot is an immutable view of the list for rendering.
type ListSnapshot struct {
	Resource       string
	Items          []Record
	Page           int
	Pages          int
	PageSize       int
	Total          int
	Loading        bool
	Error          string
	Toggling       []string
	PendingRemoval string
	ConfirmOpen    bool
}

type inflightToggle struct {
	token    string
	flag     string
	previous bool
}

// List is the client-side paginated list: the collection is fetched once,
// sliced locally, and mutated optimistically.
type List struct {
	mu        sync.Mutex
	opts      ListOptions
	messages  ListMessages
	notifier  Notifier
	telemetry Telemetry
	logger    *slog.Logger

	items          []Record
	page           int
	pageSize       int
	pages          int
	loading        bool
	errMsg         string
	inflight       map[string]inflightToggle
	pendingRemoval string
	confirmOpen    bool
	removing       bool
	closed         bool
	loadSeq        uint64
}

// NewList builds a list in its mounted state (loading, page 1).
func NewList(opts ListOptions) *List {
	if opts.IDField == "" {
		opts.IDField = "id"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	return &List{
		opts:      opts,
		messages:  opts.Messages.withDefaults(),
		notifier:  normalizeNotifier(opts.Notifier),
		telemetry: normalizeTelemetry(opts.Telemetry),
		logger:    normalizeLogger(opts.Logger),
		items:     []Record{},
		page:      1,
		pageSize:  opts.PageSize,
		pages:     1,
		loading:   true,
		inflight:  map[string]inflightToggle{},
	}
}

// PageCount returns max(1, ceil(total/size)).
func PageCount(total, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// ClampPage keeps page within [1, pages].
func ClampPage(page, pages int) int {
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		return 1
	}
	if page > pages {
		return pages
	}
	return page
}

// PageSlice returns items[(page-1)*size : min(len, page*size)] as a copy.
func PageSlice[T any](items []T, page, size int) []T {
	if size <= 0 || page < 1 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := min(start+size, len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// Load fetches the full collection. Failures leave the list empty with a
// display error; a newer Load supersedes any older one still in flight.
func (l *List) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	if l.opts.Client == nil {
		l.loading = false
		l.errMsg = l.messages.LoadFailed
		l.mu.Unlock()
		return ErrNoClient
	}
	l.loadSeq++
	seq := l.loadSeq
	l.loading = true
	l.errMsg = ""
	params := l.opts.Params.Clone()
	l.mu.Unlock()

	coll, err := l.opts.Client.List(ctx, params)

	l.mu.Lock()
	if l.closed || seq != l.loadSeq {
		l.mu.Unlock()
		return err
	}
	l.loading = false
	if err != nil {
		l.items = []Record{}
		l.errMsg = MessageFor(err, l.messages.LoadFailed)
		l.recomputeLocked()
		l.mu.Unlock()
		l.logger.WarnContext(ctx, "list load failed", slog.String("resource", l.opts.Resource), slog.Any("error", err))
		l.telemetry.Record(ctx, "storefront.list.load_failed", map[string]any{"resource": l.opts.Resource})
		return err
	}
	l.items = cloneRecords(coll.Items)
	l.recomputeLocked()
	total := len(l.items)
	l.mu.Unlock()
	l.telemetry.Record(ctx, "storefront.list.load", map[string]any{
		"resource": l.opts.Resource,
		"count":    total,
	})
	return nil
}

// SetPageSize changes the page size and reclamps the page. No refetch.
func (l *List) SetPageSize(size int) error {
	if size <= 0 {
		return &ValidationError{Field: "page_size", Message: "must be greater than zero"}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pageSize = size
	l.recomputeLocked()
	return nil
}

// SetPage moves to page p, kept within the current bounds.
func (l *List) SetPage(p int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.page = ClampPage(p, l.pages)
}

// ToggleFlag flips a boolean flag optimistically and confirms it with a
// partial update. On failure the prior value is restored.
func (l *List) ToggleFlag(ctx context.Context, id, flag string) (ToggleResult, error) {
	result := ToggleResult{ID: id, Flag: flag, State: ToggleIdle}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return result, ErrClosed
	}
	if l.opts.Client == nil {
		l.mu.Unlock()
		return result, ErrNoClient
	}
	if _, busy := l.inflight[id]; busy {
		l.mu.Unlock()
		result.State = TogglePending
		return result, ErrToggleInFlight
	}
	idx := l.indexLocked(id)
	if idx < 0 {
		l.mu.Unlock()
		return result, ErrRecordNotFound
	}
	previous := l.items[idx].Bool(flag)
	next := !previous
	token := uuid.NewString()
	l.inflight[id] = inflightToggle{token: token, flag: flag, previous: previous}
	l.items[idx] = l.items[idx].With(flag, next)
	l.mu.Unlock()

	_, err := l.opts.Client.PartialUpdate(ctx, id, map[string]any{flag: next})

	l.mu.Lock()
	if op, ok := l.inflight[id]; ok && op.token == token {
		delete(l.inflight, id)
	}
	if l.closed {
		l.mu.Unlock()
		if err != nil {
			result.State = ToggleRolledBack
			result.Value = previous
			return result, err
		}
		result.State = ToggleConfirmed
		result.Value = next
		return result, nil
	}
	toast := Toast{Resource: l.opts.Resource, RecordID: id}
	if err != nil {
		if i := l.indexLocked(id); i >= 0 {
			l.items[i] = l.items[i].With(flag, previous)
		}
		msg := MessageFor(err, l.messages.ToggleFailed)
		l.errMsg = msg
		result.State = ToggleRolledBack
		result.Value = previous
		toast.Level = ToastError
		toast.Message = msg
	} else {
		result.State = ToggleConfirmed
		result.Value = next
		toast.Level = ToastSuccess
		toast.Message = l.messages.ToggleSucceeded
	}
	l.mu.Unlock()

	l.notifier.Notify(ctx, toast)
	l.telemetry.Record(ctx, "storefront.list.toggle", map[string]any{
		"resource": l.opts.Resource,
		"id":       id,
		"flag":     flag,
		"state":    result.State.String(),
	})
	if err != nil {
		l.logger.WarnContext(ctx, "toggle rolled back",
			slog.String("resource", l.opts.Resource),
			slog.String("id", id),
			slog.String("flag", flag),
			slog.Any("error", err),
		)
		return result, err
	}
	return result, nil
}

// Toggling reports whether a toggle for id is awaiting the backend.
func (l *List) Toggling(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.inflight[id]
	return ok
}

// RequestRemove opens the confirmation step for id. Nothing is removed
// until ConfirmRemove is called.
func (l *List) RequestRemove(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if l.indexLocked(id) < 0 {
		return ErrRecordNotFound
	}
	l.pendingRemoval = id
	l.confirmOpen = true
	return nil
}

// CancelRemove closes the confirmation without touching items.
func (l *List) CancelRemove() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.removing {
		return
	}
	l.pendingRemoval = ""
	l.confirmOpen = false
}

// ConfirmRemove deletes the record awaiting confirmation. The confirmation
// closes whether the backend call succeeds or not.
func (l *List) ConfirmRemove(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	if !l.confirmOpen || l.pendingRemoval == "" {
		l.mu.Unlock()
		return ErrNoPendingRemoval
	}
	if l.removing {
		l.mu.Unlock()
		return ErrRemovalInFlight
	}
	if l.opts.Client == nil {
		l.mu.Unlock()
		return ErrNoClient
	}
	id := l.pendingRemoval
	l.removing = true
	l.mu.Unlock()

	err := l.opts.Client.Remove(ctx, id)

	l.mu.Lock()
	l.removing = false
	if l.closed {
		l.mu.Unlock()
		return err
	}
	l.confirmOpen = false
	l.pendingRemoval = ""
	toast := Toast{Resource: l.opts.Resource, RecordID: id}
	if err != nil {
		msg := MessageFor(err, l.messages.RemoveFailed)
		l.errMsg = msg
		toast.Level = ToastError
		toast.Message = msg
	} else {
		kept := l.items[:0:0]
		for _, rec := range l.items {
			if recID, _ := rec.ID(l.opts.IDField); recID != id {
				kept = append(kept, rec)
			}
		}
		l.items = kept
		l.recomputeLocked()
		toast.Level = ToastSuccess
		toast.Message = l.messages.Removed
	}
	l.mu.Unlock()

	l.notifier.Notify(ctx, toast)
	l.telemetry.Record(ctx, "storefront.list.remove", map[string]any{
		"resource": l.opts.Resource,
		"id":       id,
		"ok":       err == nil,
	})
	return err
}

// Upsert applies a created or edited record without refetching.
func (l *List) Upsert(record Record) error {
	id, ok := record.ID(l.opts.IDField)
	if !ok {
		return &ValidationError{Field: l.opts.IDField, Message: "record has no identifier"}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if idx := l.indexLocked(id); idx >= 0 {
		l.items[idx] = record.Clone()
	} else {
		l.items = append(l.items, record.Clone())
	}
	l.recomputeLocked()
	return nil
}

// Items returns a copy of the full collection in server order.
func (l *List) Items() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneRecords(l.items)
}

// Snapshot returns the current page and list state.
func (l *List) Snapshot() ListSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	toggling := make([]string, 0, len(l.inflight))
	for id := range l.inflight {
		toggling = append(toggling, id)
	}
	sort.Strings(toggling)
	return ListSnapshot{
		Resource:       l.opts.Resource,
		Items:          cloneRecords(PageSlice(l.items, l.page, l.pageSize)),
		Page:           l.page,
		Pages:          l.pages,
		PageSize:       l.pageSize,
		Total:          len(l.items),
		Loading:        l.loading,
		Error:          l.errMsg,
		Toggling:       toggling,
		PendingRemoval: l.pendingRemoval,
		ConfirmOpen:    l.confirmOpen,
	}
}

// Close marks the list unmounted. Requests still in flight settle without
// touching state.
func (l *List) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

func (l *List) recomputeLocked() {
	l.pages = PageCount(len(l.items), l.pageSize)
	l.page = ClampPage(l.page, l.pages)
}

func (l *List) indexLocked(id string) int {
	for i, rec := range l.items {
		if recID, ok := rec.ID(l.opts.IDField); ok && recID == id {
			return i
		}
	}
	return -1
}

func cloneRecords(items []Record) []Record {
	out := make([]Record, len(items))
	for i, rec := range items {
		out[i] = rec.Clone()
	}
	return out
}
